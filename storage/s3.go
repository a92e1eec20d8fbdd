package storage

import (
	"bytes"
	"io"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
)

// S3Store keeps error reports in an S3 bucket under a fixed prefix.
type S3Store struct {
	svc    *s3.S3
	bucket string
	prefix string
}

func NewS3Store() (*S3Store, error) {
	accessKey := os.Getenv("AWS_ACCESS_KEY_ID")
	secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
	region := os.Getenv("AWS_REGION")
	bucket := os.Getenv("AWS_REPORT_BUCKET")
	if accessKey == "" || secretKey == "" || region == "" || bucket == "" {
		return nil, errors.New("AWS credentials, region or bucket not set in environment")
	}

	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewStaticCredentials(accessKey, secretKey, ""),
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating AWS session")
	}
	return &S3Store{svc: s3.New(sess), bucket: bucket, prefix: "error-csvs/"}, nil
}

func (s *S3Store) Put(name string, content []byte) error {
	_, err := s.svc.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.prefix + name),
		Body:        bytes.NewReader(content),
		ContentType: aws.String("text/csv"),
	})
	return errors.Wrap(err, "uploading report to S3")
}

func (s *S3Store) Open(name string) (io.ReadCloser, error) {
	out, err := s.svc.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + name),
	})
	if err != nil {
		return nil, errors.Wrap(err, "fetching report from S3")
	}
	return out.Body, nil
}

func (s *S3Store) Exists(name string) bool {
	_, err := s.svc.HeadObject(&s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + name),
	})
	return err == nil
}
