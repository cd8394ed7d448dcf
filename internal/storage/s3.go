package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3 stores objects under documents/ and addresses them as s3://bucket/key.
type S3 struct {
	client *s3.Client
	bucket string
}

// NewS3 creates the bucket when it does not exist yet.
func NewS3(ctx context.Context, client *s3.Client, bucket string) (*S3, error) {
	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
		_, crtErr := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
		if crtErr != nil {
			var bErr *s3types.BucketAlreadyOwnedByYou
			if !errors.As(crtErr, &bErr) {
				return nil, fmt.Errorf("create bucket: %w", crtErr)
			}
		}
	}
	return &S3{client: client, bucket: bucket}, nil
}

func (s *S3) Save(ctx context.Context, filename string, r io.Reader) (Object, error) {
	// the body is needed twice (hash for the key, then upload)
	tmp, sha, n, err := spool("", "s3-upload-*.tmp", r)
	if err != nil {
		return Object{}, err
	}
	defer func() {
		tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	key := "documents/" + objectName(sha, filename)
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return Object{}, fmt.Errorf("seek: %w", err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          tmp,
		ContentLength: aws.Int64(n),
		ContentType:   aws.String("application/pdf"),
	})
	if err != nil {
		return Object{}, fmt.Errorf("put object: %w", err)
	}
	return Object{Path: fmt.Sprintf("s3://%s/%s", s.bucket, key), SHA256: sha, Size: n}, nil
}

// Open downloads the object into a temp file removed on Close.
func (s *S3) Open(ctx context.Context, path string) (Blob, error) {
	bucket, key, err := parseS3Path(path)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer out.Body.Close()

	tmp, _, n, err := spool("", "ingest-*.pdf", out.Body)
	if err != nil {
		return nil, err
	}
	name := tmp.Name()
	return &fileBlob{File: tmp, size: n, cleanup: func() { _ = os.Remove(name) }}, nil
}

func (s *S3) Delete(ctx context.Context, path string) error {
	bucket, key, err := parseS3Path(path)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func parseS3Path(path string) (string, string, error) {
	if !strings.HasPrefix(path, "s3://") {
		return "", "", fmt.Errorf("storage: not an s3 path: %q", path)
	}
	u, err := url.Parse(path)
	if err != nil {
		return "", "", err
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("storage: incomplete s3 path: %q", path)
	}
	return u.Host, key, nil
}
