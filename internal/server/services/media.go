package services

import (
	"context"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/ananddevocation/tripdesk/internal/common"
	"github.com/ananddevocation/tripdesk/internal/logging"
	sc "github.com/ananddevocation/tripdesk/internal/server/config"
	"github.com/ananddevocation/tripdesk/internal/server/models"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const uploadURLValidity = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// allowedImageTypes are the content types accepted for advertisement images.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// MediaService hands out presigned S3 upload URLs for advertisement images,
// so image bytes go straight to object storage and never through the API.
type MediaService struct {
	config *sc.Config
	now    func() time.Time
	logger logging.Logger
}

func NewMediaService(config *sc.Config, logger logging.Logger) *MediaService {
	return &MediaService{config: config, now: time.Now, logger: logger.With("module", "media")}
}

func (s *MediaService) storageKey(ext string) string {
	d := s.now().UTC()
	return fmt.Sprintf("advertisements/%d/%02d/%02d/%v%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}

func (s *MediaService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3AccessKey,
			s.config.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return newS3PresignClient(client), nil
}

// AdvertisementUploadURL returns a presigned PUT for a new image object and
// the URL the image will be served from once uploaded.
func (s *MediaService) AdvertisementUploadURL(ctx context.Context, contentType string) (*models.UploadTask, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: bad content type", common.ErrValidation)
	}
	ext, ok := allowedImageTypes[mediaType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported content type %q", common.ErrValidation, mediaType)
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		s.logger.Error(ctx, "s3 client setup failed", "error", err)
		return nil, common.ErrorInternal
	}

	bucket := s.config.S3Bucket
	key := s.storageKey(ext)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: &mediaType,
	}, s3.WithPresignExpires(uploadURLValidity))
	if err != nil {
		s.logger.Error(ctx, "presign put failed", "error", err)
		return nil, common.ErrorInternal
	}

	return &models.UploadTask{
		Key:       key,
		URL:       req.URL,
		PublicURL: s.publicURL(key),
		ExpiresAt: s.now().Add(uploadURLValidity),
	}, nil
}

func (s *MediaService) publicURL(key string) string {
	if s.config.S3BaseEndpoint != "" {
		return strings.TrimRight(s.config.S3BaseEndpoint, "/") + "/" + s.config.S3Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.config.S3Bucket, s.config.S3Region, key)
}
