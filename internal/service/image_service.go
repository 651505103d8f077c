package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"kaizen/internal/config"
	"kaizen/internal/featureflags"
	"kaizen/internal/models"
	"kaizen/internal/repository"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
	"gorm.io/gorm"
)

const (
	DefaultImageUploadDir       = "./media"
	DefaultMediaURLPrefix       = "/media"
	DefaultImageMaxUploadSizeMB = 10
	AttachmentsDir              = "kaizen_attachments"
	MasterMaxSize               = 2048
	JPEGQuality                 = 82
	WebPQuality                 = 70
)

type UploadImageInput struct {
	PostID      uint
	Filename    string
	ContentType string
	Content     []byte
}

type ImageService struct {
	images             repository.ImageRepository
	posts              repository.PostRepository
	flags              FlagChecker
	uploadDir          string
	urlPrefix          string
	maxUploadSizeBytes int64
	now                func() time.Time
}

func NewImageService(
	images repository.ImageRepository,
	posts repository.PostRepository,
	flags FlagChecker,
	cfg *config.Config,
) *ImageService {
	uploadDir := DefaultImageUploadDir
	urlPrefix := DefaultMediaURLPrefix
	maxUploadSizeMB := DefaultImageMaxUploadSizeMB

	if cfg != nil {
		if cfg.UploadDir != "" {
			uploadDir = cfg.UploadDir
		}
		if cfg.MediaURLPrefix != "" {
			urlPrefix = cfg.MediaURLPrefix
		}
		if cfg.MaxUploadMB > 0 {
			maxUploadSizeMB = cfg.MaxUploadMB
		}
	}

	return &ImageService{
		images:             images,
		posts:              posts,
		flags:              flags,
		uploadDir:          uploadDir,
		urlPrefix:          strings.TrimRight(urlPrefix, "/"),
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
		now:                time.Now,
	}
}

// UploadDir is the root directory served under the media URL prefix.
func (s *ImageService) UploadDir() string {
	return s.uploadDir
}

// MediaURLPrefix is the path stored image URLs start with.
func (s *ImageService) MediaURLPrefix() string {
	if s.urlPrefix == "" {
		return "/"
	}
	return s.urlPrefix
}

// Upload attaches a photo to a post owned by actor. The picture is
// re-encoded as JPEG, bounded to MasterMaxSize, with an optional WebP copy.
func (s *ImageService) Upload(ctx context.Context, actor Actor, in UploadImageInput) (*models.Image, error) {
	post, err := s.posts.GetByID(ctx, in.PostID, 0)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", in.PostID)
		}
		return nil, models.NewInternalError(err)
	}
	if err := Authorize(actor, ActionUploadImage, post.UserID); err != nil {
		return nil, err
	}

	if len(in.Content) == 0 {
		return nil, imageFieldError("No file was submitted.")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, imageFieldError(fmt.Sprintf("File too large (max %dMB).", s.maxUploadSizeBytes/(1024*1024)))
	}

	detectedType := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detectedType) {
		return nil, imageFieldError("Upload a valid image.")
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, imageFieldError("Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}
	sourceMimeType := decodedFormatToMime(format)
	if sourceMimeType == "" {
		return nil, imageFieldError("Unsupported image format.")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, sourceMimeType) {
		return nil, imageFieldError("Image content type mismatch.")
	}

	master := resizeToFit(decoded, MasterMaxSize, MasterMaxSize)
	encodedJPG, err := encodeJPEG(master, JPEGQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	relDir := path.Join(AttachmentsDir, s.now().UTC().Format("2006/01/02"))
	name := contentName(post.ID, encodedJPG)
	jpgRel := path.Join(relDir, name+".jpg")
	written := []string{s.absPath(jpgRel)}
	if err := writeBytesToFile(written[0], encodedJPG); err != nil {
		return nil, models.NewInternalError(err)
	}

	var webpRel string
	if s.flags == nil || s.flags.Enabled(featureflags.ImageWebPVariants, actor.ID) {
		encodedWebP, err := encodeWebP(master, WebPQuality)
		if err != nil {
			cleanupImageFiles(written)
			return nil, models.NewInternalError(err)
		}
		webpRel = path.Join(relDir, name+".webp")
		if err := writeBytesToFile(s.absPath(webpRel), encodedWebP); err != nil {
			cleanupImageFiles(written)
			return nil, models.NewInternalError(err)
		}
		written = append(written, s.absPath(webpRel))
	}

	bounds := master.Bounds()
	record := &models.Image{
		PostID:      post.ID,
		Path:        jpgRel,
		URL:         s.mediaURL(jpgRel),
		ContentType: "image/jpeg",
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		SizeBytes:   int64(len(encodedJPG)),
	}
	if webpRel != "" {
		record.WebPURL = s.mediaURL(webpRel)
	}
	if err := s.images.Create(ctx, record); err != nil {
		cleanupImageFiles(written)
		return nil, models.NewInternalError(err)
	}
	return record, nil
}

// ListImages returns the attachments of a post in upload order.
func (s *ImageService) ListImages(ctx context.Context, postID uint) ([]models.Image, error) {
	images, err := s.images.ListByPost(ctx, postID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return images, nil
}

func (s *ImageService) absPath(rel string) string {
	return filepath.Join(s.uploadDir, filepath.FromSlash(rel))
}

func (s *ImageService) mediaURL(rel string) string {
	return s.urlPrefix + "/" + rel
}

func imageFieldError(msg string) error {
	return models.NewFieldValidationError("Invalid input", map[string]string{"image": msg})
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := min(scaleW, scaleH)
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}

// contentName derives a stable file name from the post and the encoded bytes.
func contentName(postID uint, content []byte) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%d:", postID)
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))[:32]
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func cleanupImageFiles(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
