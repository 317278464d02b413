package helper

import (
	"context"
	"fmt"
	"io"
	"society_tickets/config"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// ImageUploader stores event posters and returns their public URL.
type ImageUploader interface {
	UploadEventImage(ctx context.Context, eventID uint, file io.Reader) (string, error)
	RemoveImage(ctx context.Context, url string) error
}

type CloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

func InitCloudinary(cfg config.CloudinaryConfig) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	return &CloudinaryUploader{cld: cld}, nil
}

func (u *CloudinaryUploader) UploadEventImage(ctx context.Context, eventID uint, file io.Reader) (string, error) {
	res, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       "events/posters",
		PublicID:     fmt.Sprintf("event_%d_poster_%d", eventID, time.Now().Unix()),
		ResourceType: "image",
	})
	if err != nil {
		return "", err
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary: %s", res.Error.Message)
	}
	return res.SecureURL, nil
}

// RemoveImage destroys a previously uploaded poster. URLs that do not point
// at Cloudinary are ignored.
func (u *CloudinaryUploader) RemoveImage(ctx context.Context, url string) error {
	publicID := ExtractPublicID(url)
	if publicID == "" {
		return nil
	}
	res, err := u.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID, ResourceType: "image"})
	if err != nil {
		return err
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary: %s", res.Error.Message)
	}
	return nil
}
