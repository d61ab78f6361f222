package spaces

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/DMarby/instafilter/internal/storage"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Provider implements an S3 compatible (e.g. digitalocean spaces) image storage
type Provider struct {
	spaces *s3.S3
	space  string
}

// New returns a new Provider instance
func New(space, endpoint, accessKey, secretKey string, forcePathStyle bool) (*Provider, error) {
	spacesSession, err := session.NewSession(&aws.Config{
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String("us-east-1"), // Needs to be us-east-1 for Spaces, or it'll fail
		S3ForcePathStyle: aws.Bool(forcePathStyle),
	})
	if err != nil {
		return nil, err
	}

	spaces := s3.New(spacesSession)

	// Make sure the bucket exists and that we have access to it
	_, err = spaces.HeadBucket(&s3.HeadBucketInput{
		Bucket: aws.String(space),
	})
	if err != nil {
		return nil, err
	}

	return &Provider{
		spaces: spaces,
		space:  space,
	}, nil
}

// Get returns the data stored under a key
func (p *Provider) Get(ctx context.Context, key string) ([]byte, error) {
	key, err := storage.CleanKey(key)
	if err != nil {
		return nil, err
	}

	object := s3.GetObjectInput{
		Bucket: aws.String(p.space),
		Key:    aws.String(key),
	}

	output, err := p.spaces.GetObjectWithContext(ctx, &object)
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, storage.ErrNotFound
		}

		return nil, err
	}
	defer output.Body.Close()

	buf := new(bytes.Buffer)
	_, err = io.Copy(buf, output.Body)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Put stores data under a key
func (p *Provider) Put(ctx context.Context, key string, data []byte) error {
	key, err := storage.CleanKey(key)
	if err != nil {
		return err
	}

	object := s3.PutObjectInput{
		Bucket:      aws.String(p.space),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(http.DetectContentType(data)),
		ACL:         aws.String(s3.ObjectCannedACLPrivate),
	}

	_, err = p.spaces.PutObjectWithContext(ctx, &object)
	return err
}
