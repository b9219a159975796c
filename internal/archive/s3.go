// internal/archive/s3.go
package archive

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"go.uber.org/zap"

	"github.com/xkilldash9x/intake-cli/internal/config"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// S3Archiver copies the exported workbook to an S3 bucket.
type S3Archiver struct {
	client s3iface.S3API
	cfg    config.ArchiveConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewS3Archiver builds an archiver with its own AWS session. Static
// credentials are used when configured; otherwise the SDK's default chain
// (environment, shared config, instance role) applies.
func NewS3Archiver(cfg config.ArchiveConfig, logger *zap.Logger) (*S3Archiver, error) {
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return NewS3ArchiverWithClient(s3.New(sess), cfg, logger), nil
}

// NewS3ArchiverWithClient wraps an existing S3 client.
func NewS3ArchiverWithClient(client s3iface.S3API, cfg config.ArchiveConfig, logger *zap.Logger) *S3Archiver {
	return &S3Archiver{
		client: client,
		cfg:    cfg,
		logger: logger.Named("archive"),
		now:    time.Now,
	}
}

// Upload puts the file at localPath under "<prefix>/<date>/<basename>" and
// returns its object URL.
func (a *S3Archiver) Upload(ctx context.Context, localPath string) (string, error) {
	content, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	key := a.objectKey(localPath)
	_, err = a.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(xlsxContentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	url := a.objectURL(key)
	a.logger.Info("Workbook archived.", zap.String("url", url), zap.Int("bytes", len(content)))
	return url, nil
}

func (a *S3Archiver) objectKey(localPath string) string {
	return path.Join(a.cfg.Prefix, a.now().UTC().Format("2006-01-02"), filepath.Base(localPath))
}

func (a *S3Archiver) objectURL(key string) string {
	if a.cfg.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", a.cfg.Endpoint, a.cfg.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", a.cfg.Bucket, a.cfg.Region, key)
}
