package io

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/sirupsen/logrus"
)

const defaultAwsRegion = `eu-west-2`

// Sink stores encoded output either on the local filesystem or, for
// targets of the form s3://bucket/key, in S3.
type Sink struct {
	// Region is used for S3 targets; defaults to eu-west-2
	Region string
	Logger logrus.FieldLogger

	uploader *s3manager.Uploader
}

// S3Target is a parsed s3://bucket/key location
type S3Target struct {
	Bucket, Key string
}

// ParseS3Target reports whether target names an S3 object and splits it
func ParseS3Target(target string) (S3Target, bool, error) {
	if !strings.HasPrefix(target, "s3://") {
		return S3Target{}, false, nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return S3Target{}, true, fmt.Errorf("invalid s3 target %q: %w", target, err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" || strings.HasSuffix(key, "/") {
		return S3Target{}, true, fmt.Errorf("invalid s3 target %q: need s3://bucket/key", target)
	}
	return S3Target{Bucket: u.Host, Key: key}, true, nil
}

// Write stores data at target
func (s *Sink) Write(target string, data []byte) error {
	t, isS3, err := ParseS3Target(target)
	if err != nil {
		return err
	}
	if isS3 {
		return s.upload(t, data)
	}

	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	s.logger().WithFields(logrus.Fields{"target": target, "bytes": len(data)}).Debug("Output written")
	return nil
}

func (s *Sink) upload(t S3Target, data []byte) error {
	if s.uploader == nil {
		region := s.Region
		if region == "" {
			region = defaultAwsRegion
		}
		sess, err := session.NewSession(&aws.Config{
			Region: aws.String(region),
		})
		if err != nil {
			return fmt.Errorf("failed to set up aws session: %w", err)
		}
		s.uploader = s3manager.NewUploader(sess)
	}

	_, err := s.uploader.Upload(&s3manager.UploadInput{
		Bucket:      aws.String(t.Bucket),
		Key:         aws.String(t.Key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return fmt.Errorf("uploading to s3://%s/%s: %w", t.Bucket, t.Key, err)
	}
	s.logger().WithFields(logrus.Fields{"bucket": t.Bucket, "key": t.Key, "bytes": len(data)}).Info("Output uploaded")
	return nil
}

func (s *Sink) logger() logrus.FieldLogger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}
