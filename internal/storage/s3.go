package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/sirupsen/logrus"
)

type S3 struct {
	client s3iface.S3API
	bucket string
	dirs   Directories
	now    func() time.Time
	logger *logrus.Logger
}

func NewS3(bucket, region string, dirs Directories, logger *logrus.Logger) (*S3, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, err
	}

	return NewS3WithClient(s3.New(sess), bucket, dirs, logger), nil
}

func NewS3WithClient(client s3iface.S3API, bucket string, dirs Directories, logger *logrus.Logger) *S3 {
	return &S3{
		client: client,
		bucket: bucket,
		dirs:   dirs,
		now:    time.Now,
		logger: logger,
	}
}

func (s *S3) Mode() string { return "s3" }

func (s *S3) Put(ctx context.Context, f *File, kind Kind, ownerID uint) (string, error) {
	folder, err := s.dirs.folder(kind)
	if err != nil {
		return "", err
	}

	key := path.Join(folder, FileName(ownerID, f.Extension(), s.now()))

	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(f.Content),
		ContentType: aws.String(f.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	s.logger.WithFields(logrus.Fields{"kind": kind, "key": key}).Debug("stored upload in s3")
	return key, nil
}

func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(strings.TrimPrefix(key, "/")),
	})
	return err
}
