package service

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qs3c/prep_go_server/config"
	"github.com/qs3c/prep_go_server/internal/model/dto"
)

var (
	ErrFileTooLarge    = errors.New("文件过大")
	ErrInvalidFormat   = errors.New("不支持的文件格式")
	ErrInvalidEncoding = errors.New("文件不是有效的 UTF-8 文本")
	ErrEmptyUpload     = errors.New("文件内容为空")
)

// DocumentStore 对象存储
type DocumentStore interface {
	UploadDocument(userID int64, filename string, data []byte) (string, error)
}

// UploadService 作业文档上传，返回可用作 file_content 的正文
type UploadService struct {
	store DocumentStore
	cfg   *config.Config
	log   *zap.Logger
}

// NewUploadService store 为 nil 时保存到本地临时目录
func NewUploadService(store DocumentStore, cfg *config.Config, log *zap.Logger) *UploadService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UploadService{store: store, cfg: cfg, log: log}
}

// Upload 校验并保存文档
func (s *UploadService) Upload(userID int64, filename string, r io.Reader, size int64) (*dto.UploadResponse, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !s.allowed(ext) {
		return nil, ErrInvalidFormat
	}
	if size > s.cfg.Upload.MaxSize {
		return nil, ErrFileTooLarge
	}

	// 多读一个字节用于判断实际大小
	data, err := io.ReadAll(io.LimitReader(r, s.cfg.Upload.MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.cfg.Upload.MaxSize {
		return nil, ErrFileTooLarge
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrEmptyUpload
	}
	if !utf8.Valid(data) {
		return nil, ErrInvalidEncoding
	}

	url, err := s.save(userID, filename, data)
	if err != nil {
		return nil, err
	}

	content, truncated := truncateContent(string(data), s.cfg.Upload.MaxContentChars)
	return &dto.UploadResponse{
		Filename:  filepath.Base(filename),
		URL:       url,
		Size:      int64(len(data)),
		Content:   content,
		Truncated: truncated,
	}, nil
}

func (s *UploadService) save(userID int64, filename string, data []byte) (string, error) {
	if s.store != nil {
		url, err := s.store.UploadDocument(userID, filename, data)
		if err != nil {
			return "", fmt.Errorf("upload to object storage: %w", err)
		}
		return url, nil
	}

	dir := filepath.Join(s.cfg.Upload.TempDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0644); err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	return path, nil
}

func (s *UploadService) allowed(ext string) bool {
	for _, e := range s.cfg.Upload.AllowedExtensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// CleanupTemp 清理过期的本地上传目录，返回清理数量
func (s *UploadService) CleanupTemp(expire time.Duration) (int, error) {
	dir := s.cfg.Upload.TempDir
	if dir == "" {
		return 0, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cleaned := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if time.Since(info.ModTime()) > expire {
			path := filepath.Join(dir, entry.Name())
			if err := os.RemoveAll(path); err != nil {
				s.log.Warn("cleanup upload dir failed", zap.String("path", path), zap.Error(err))
				continue
			}
			cleaned++
		}
	}
	return cleaned, nil
}

// truncateContent 按字符截断，不会截断多字节字符
func truncateContent(s string, max int) (string, bool) {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s, false
	}
	return string([]rune(s)[:max]), true
}
