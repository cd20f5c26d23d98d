package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/onction/power-dashboard/internal/domain"
)

// PresignExpiry is how long a report download link stays valid.
const PresignExpiry = time.Hour

// LoadConfig loads the default AWS configuration for region.
func LoadConfig(ctx context.Context, region string) (aws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return cfg, nil
}

// S3Client stores generated reports and archived snapshots in one bucket.
type S3Client struct {
	svc    *s3.Client
	bucket string
	now    func() time.Time
}

func NewS3Client(cfg aws.Config, bucket string) *S3Client {
	return &S3Client{svc: s3.NewFromConfig(cfg), bucket: bucket, now: time.Now}
}

// ReportObject is one archived report.
type ReportObject struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// UploadReport stores a report and returns a presigned download URL.
func (c *S3Client) UploadReport(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"uploaded-at": c.now().UTC().Format(time.RFC3339),
		},
	}
	if _, err := c.svc.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	presignClient := s3.NewPresignClient(c.svc)
	presigned, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = PresignExpiry
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return presigned.URL, nil
}

// ListReports lists archived reports under prefix.
func (c *S3Client) ListReports(ctx context.Context, prefix string) ([]ReportObject, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	}

	out := []ReportObject{}
	paginator := s3.NewListObjectsV2Paginator(c.svc, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			out = append(out, ReportObject{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	return out, nil
}

// DownloadReport fetches an archived report.
func (c *S3Client) DownloadReport(ctx context.Context, key string) ([]byte, error) {
	result, err := c.svc.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download from S3: %w", err)
	}
	defer result.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(result.Body); err != nil {
		return nil, fmt.Errorf("failed to read S3 object body: %w", err)
	}
	return buf.Bytes(), nil
}

// ArchiveSnapshot writes a live snapshot as JSON into the data lake.
func (c *S3Client) ArchiveSnapshot(ctx context.Context, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = c.svc.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(SnapshotKey(snap.SnapshotTime.Time, uuid.New())),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload snapshot: %w", err)
	}
	return nil
}

// SnapshotKey partitions archived snapshots by day.
func SnapshotKey(t time.Time, id uuid.UUID) string {
	return path.Join("snapshots", t.Format("2006/01/02"), t.Format("150405")+"-"+id.String()+".json")
}
