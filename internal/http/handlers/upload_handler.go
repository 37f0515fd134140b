package handlers

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-wrapped-backend/internal/apperr"
	"github.com/tbourn/go-wrapped-backend/internal/http/middleware"
	"github.com/tbourn/go-wrapped-backend/internal/services"
	"github.com/tbourn/go-wrapped-backend/internal/sysutil"
)

// UploadField is the multipart field carrying the image.
const UploadField = "image"

// ImagePath is the route of the image proxy.
const ImagePath = "/api/wrapped/image"

// imageCacheControl applies to proxied images; keys are never reused.
const imageCacheControl = "public, max-age=31536000, immutable"

// ImageURL returns the proxy URL serving key.
func ImageURL(key string) string {
	return ImagePath + "?key=" + url.QueryEscape(key)
}

// UploadResponse is returned by the upload endpoint.
type UploadResponse struct {
	Key string `json:"key" example:"uploads/1735000000000-123456789.png"`
	URL string `json:"url" example:"/api/wrapped/image?key=uploads%2F1735000000000-123456789.png"`
}

// UploadImage godoc
// @ID          uploadImage
// @Summary     Upload an image
// @Description Accepts one image (sniffed content type image/*, at most 5 MB) and
// @Description returns its storage key and proxy URL.
// @Tags        Wrapped
// @Accept      multipart/form-data
// @Produce     json
// @Param       image  formData  file  true  "Image file"
// @Success     200    {object}  handlers.UploadResponse
// @Failure     400    {object}  handlers.ErrorResponse  "Missing file or not an image"
// @Failure     413    {object}  handlers.ErrorResponse  "File too large"
// @Failure     503    {object}  handlers.ErrorResponse  "Storage unavailable"
// @Router      /api/wrapped/upload [post]
func (h *Handlers) UploadImage(c *gin.Context) error {
	fh, err := c.FormFile(UploadField)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			e := apperr.New(services.MsgFileTooLarge, http.StatusRequestEntityTooLarge, false, err)
			e.Kind = services.KindPayloadTooLarge
			return e
		}
		return apperr.BadRequest("No file uploaded").CausedBy(err).AddSubError(apperr.SubError{
			Path:    UploadField,
			Code:    "required",
			Message: "multipart field " + strconv.Quote(UploadField) + " is required",
		})
	}
	f, err := fh.Open()
	if err != nil {
		return apperr.BadRequest("Could not read upload").CausedBy(err)
	}
	defer f.Close()

	up, err := h.uploads.Save(c.Request.Context(), path.Base(fh.Filename), f)
	if err != nil {
		return err
	}
	middleware.CountEvent(middleware.EventImageUploaded)
	return ok(c, http.StatusOK, UploadResponse{Key: up.Key, URL: up.URL})
}

// GetImage godoc
// @ID          getImage
// @Summary     Image proxy
// @Description Streams a previously uploaded image. download=1 asks the browser to save it.
// @Tags        Wrapped
// @Produce     image/png
// @Produce     image/jpeg
// @Produce     image/gif
// @Produce     image/webp
// @Param       key       query  string  true   "Storage key returned by upload"
// @Param       download  query  bool    false  "Serve as attachment"
// @Success     200  {file}    binary
// @Failure     400  {object}  handlers.ErrorResponse  "Missing key"
// @Failure     404  {object}  handlers.ErrorResponse  "Image not found"
// @Router      /api/wrapped/image [get]
func (h *Handlers) GetImage(c *gin.Context) error {
	obj, err := h.uploads.Open(c.Request.Context(), c.Query("key"))
	if err != nil {
		return err
	}
	defer obj.Body.Close()

	hdr := c.Writer.Header()
	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	hdr.Set("Content-Type", contentType)
	hdr.Set("Cache-Control", imageCacheControl)
	if obj.Size >= 0 {
		hdr.Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	if sysutil.IsTruthy(c.Query("download")) {
		hdr.Set("Content-Disposition", `attachment; filename="`+path.Base(c.Query("key"))+`"`)
	}
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, obj.Body); err != nil {
		// Headers are gone; the client sees a truncated body.
		middleware.LoggerFrom(c).Warn().Err(err).Msg("image stream interrupted")
	}
	return nil
}
