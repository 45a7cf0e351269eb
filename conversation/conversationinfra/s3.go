package conversationinfra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/Abraxas-365/supportdesk/conversation"
	"github.com/Abraxas-365/supportdesk/pkg/config"
	"github.com/Abraxas-365/supportdesk/pkg/logx"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// objectPutter is the subset of *s3.Client the archiver uses
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver uploads conversation transcripts as JSON objects
type S3Archiver struct {
	client objectPutter
	bucket string
	prefix string
}

var _ conversation.Archiver = (*S3Archiver)(nil)

// NewS3Client builds an S3 client from the default AWS credential chain
func NewS3Client(ctx context.Context, cfg config.ArchiveConfig) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

func NewS3Archiver(client objectPutter, bucket, prefix string) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key of a conversation transcript
func (a *S3Archiver) Key(id conversation.ID) string {
	return path.Join(a.prefix, string(id)+".json")
}

// Archive uploads the transcript and returns its s3:// location
func (a *S3Archiver) Archive(ctx context.Context, transcript *conversation.WithMessages) (string, error) {
	body, err := json.MarshalIndent(transcript, "", "  ")
	if err != nil {
		return "", conversation.ErrMessageSerializationFailed(err)
	}

	key := a.Key(transcript.Conversation.ID)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		logx.WithFields(logx.Fields{
			"bucket": a.bucket,
			"key":    key,
		}).WithError(err).Error("Failed to upload transcript")
		return "", conversation.ErrArchiveFailed(err)
	}

	location := fmt.Sprintf("s3://%s/%s", a.bucket, key)
	logx.WithFields(logx.Fields{
		"conversation_id": transcript.Conversation.ID,
		"location":        location,
		"messages":        len(transcript.Messages),
	}).Info("Transcript archived")
	return location, nil
}
