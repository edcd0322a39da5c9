package services

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/dmitrijs2005/authgate/internal/client/client"
	"github.com/dmitrijs2005/authgate/internal/client/models"
	"github.com/dmitrijs2005/authgate/internal/netx"
)

// maxAvatarBytes bounds the size of an uploaded profile picture.
const maxAvatarBytes = 5 << 20

// uploadFn is a test seam for netx.UploadToS3PresignedURL.
var uploadFn = netx.UploadToS3PresignedURL

type UserService interface {
	List(ctx context.Context, page, size int) (*models.ProfilePage, error)
	UploadAvatar(ctx context.Context, path string) (*models.AvatarUpload, error)
	AvatarURL(ctx context.Context) (string, error)
}

type userService struct {
	client client.Client
	http   *http.Client
}

func NewUserService(c client.Client, hc *http.Client) UserService {
	return &userService{client: c, http: hc}
}

func (s *userService) List(ctx context.Context, page, size int) (*models.ProfilePage, error) {
	return s.client.ListUsers(ctx, page, size)
}

// UploadAvatar sniffs the file's content type, asks the server for a
// presigned URL and PUTs the file to object storage.
func (s *userService) UploadAvatar(ctx context.Context, path string) (*models.AvatarUpload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxAvatarBytes {
		return nil, fmt.Errorf("file is larger than %d bytes", maxAvatarBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	contentType := http.DetectContentType(data)

	up, err := s.client.AvatarUploadURL(ctx, contentType)
	if err != nil {
		return nil, fmt.Errorf("request upload url: %w", err)
	}

	if err := uploadFn(ctx, s.http, up.URL, contentType, data); err != nil {
		return nil, err
	}
	return up, nil
}

func (s *userService) AvatarURL(ctx context.Context) (string, error) {
	return s.client.AvatarURL(ctx)
}
