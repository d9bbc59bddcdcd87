package cloudinary

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// Client uploads product assets.
type Client interface {
	UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (url, thumbnailURL string, err error)
	UploadVideo(ctx context.Context, file io.Reader, folder, publicID string) (url, thumbnailURL string, err error)
	UploadRaw(ctx context.Context, file io.Reader, folder, publicID string) (url string, err error)
}

// Optimized image params for fast frontend loading
const (
	ImageWidth = 800
	ThumbWidth = 200
)

// BuildOptimizedImageURL returns a Cloudinary URL with transformations for optimized delivery.
func BuildOptimizedImageURL(cloudName, publicID string, width int) string {
	if width <= 0 {
		width = ImageWidth
	}
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/q_auto,f_auto,w_%d,c_fill/%s",
		cloudName, width, publicID)
}

const (
	imageEager = "q_auto,f_auto,w_800,c_fill"
	videoEager = "q_auto:low,f_auto,w_1280"
)

var eagerAsyncFalse = false

type clientImpl struct {
	cloudName string
	uploader  *uploader.API
}

// UploadImage uploads an image with eager optimizations (auto quality, format, resize).
func (c *clientImpl) UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (url, thumbnailURL string, err error) {
	result, err := c.uploader.Upload(ctx, file, uploader.UploadParams{
		Folder:     folder,
		PublicID:   publicID,
		Eager:      imageEager,
		EagerAsync: &eagerAsyncFalse,
	})
	if err != nil {
		return "", "", err
	}
	url = result.SecureURL
	if len(result.Eager) > 0 {
		thumbnailURL = result.Eager[0].SecureURL
	}
	if thumbnailURL == "" {
		thumbnailURL = BuildOptimizedImageURL(c.cloudName, result.PublicID, ThumbWidth)
	}
	return url, thumbnailURL, nil
}

// UploadVideo uploads a video lesson with eager optimization.
func (c *clientImpl) UploadVideo(ctx context.Context, file io.Reader, folder, publicID string) (url, thumbnailURL string, err error) {
	result, err := c.uploader.Upload(ctx, file, uploader.UploadParams{
		Folder:       folder,
		PublicID:     publicID,
		ResourceType: "video",
		Eager:        videoEager,
		EagerAsync:   &eagerAsyncFalse,
	})
	if err != nil {
		return "", "", err
	}
	url = result.SecureURL
	if len(result.Eager) > 0 {
		thumbnailURL = result.Eager[0].SecureURL
	}
	if thumbnailURL == "" {
		thumbnailURL = fmt.Sprintf("https://res.cloudinary.com/%s/video/upload/so_0/%s.jpg", c.cloudName, result.PublicID)
	}
	return url, thumbnailURL, nil
}

// UploadRaw stores downloadable files (pdf, zip) untransformed. Delivery is
// authenticated so only entitled buyers get signed links.
func (c *clientImpl) UploadRaw(ctx context.Context, file io.Reader, folder, publicID string) (string, error) {
	result, err := c.uploader.Upload(ctx, file, uploader.UploadParams{
		Folder:       folder,
		PublicID:     publicID,
		ResourceType: "raw",
		Type:         "authenticated",
	})
	if err != nil {
		return "", err
	}
	return result.SecureURL, nil
}

// NewClientFromParams builds a Client from Cloudinary cloud name, API key, and secret.
func NewClientFromParams(cloudName, apiKey, apiSecret string) (Client, error) {
	cfg, err := config.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	up, err := uploader.NewWithConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	return &clientImpl{
		cloudName: cloudName,
		uploader:  up,
	}, nil
}
