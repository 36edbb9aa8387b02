package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/players_club/internal/resp"
)

// ImageStore 保存上传的图片并返回可访问的引用
type ImageStore interface {
	Store(ctx context.Context, data []byte, suggestedName, contentType string) (string, error)
}

// UploadHandler 后台图片上传
type UploadHandler struct {
	store     ImageStore
	maxUpload int64
	logger    *zap.Logger
}

// NewUploadHandler 创建上传处理器，maxUpload 为单个文件的字节上限
func NewUploadHandler(store ImageStore, maxUpload int64, logger *zap.Logger) *UploadHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadHandler{store: store, maxUpload: maxUpload, logger: logger}
}

// uploadResult 上传结果
type uploadResult struct {
	Files []string `json:"files"`
}

// Upload 接收 multipart 字段 files（至少一个），仅接受图片
// @Summary 上传商品图片
// @Tags 后台
// @Accept multipart/form-data
// @Produce json
// @Success 200 {object} resp.Response[uploadResult] "成功"
// @Failure 400 {object} resp.Response[any] "没有文件或文件不是图片"
// @Failure 503 {object} resp.Response[any] "存储不可用"
// @Router /api/v1/admin/upload [post]
// @Security Bearer
func (h *UploadHandler) Upload(c *gin.Context) {
	reqID := requestID(c)

	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, h.logger, "No files uploaded", err)
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		resp.Error(c.Writer, http.StatusBadRequest, resp.CodeInvalidParam, "No files uploaded", reqID, "")
		return
	}

	refs := make([]string, 0, len(files))
	for _, fh := range files {
		data, contentType, err := h.readImage(fh)
		if err != nil {
			h.logger.Warn("upload rejected",
				zap.String("request_id", reqID),
				zap.String("filename", fh.Filename),
				zap.Error(err),
			)
			resp.Error(c.Writer, http.StatusBadRequest, resp.CodeInvalidParam, err.Error(), reqID, "")
			return
		}

		ref, err := h.store.Store(c.Request.Context(), data, fh.Filename, contentType)
		if err != nil {
			writeError(c, h.logger, "upload", err)
			return
		}
		refs = append(refs, ref)
	}

	h.logger.Info("images uploaded", zap.String("request_id", reqID), zap.Int("count", len(refs)))
	resp.OK(c.Writer, uploadResult{Files: refs}, reqID, "")
}

// readImage 读取文件内容并按内容嗅探类型，非图片或超限时返回错误
func (h *UploadHandler) readImage(fh *multipart.FileHeader) ([]byte, string, error) {
	if h.maxUpload > 0 && fh.Size > h.maxUpload {
		return nil, "", fmt.Errorf("File %s exceeds the %d byte limit", fh.Filename, h.maxUpload)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", fmt.Errorf("Cannot read file %s", fh.Filename)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", fmt.Errorf("Cannot read file %s", fh.Filename)
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", fmt.Errorf("File %s is not an image", fh.Filename)
	}
	return data, contentType, nil
}
