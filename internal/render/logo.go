package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/MrPunder/codeform/internal/export"
	"github.com/MrPunder/codeform/internal/logger"
	"github.com/MrPunder/codeform/internal/models"
)

var (
	ErrNoLogo        = errors.New("logo source is empty")
	ErrForbiddenLogo = errors.New("logo url is not allowed")
)

const maxLogoRedirects = 5

// LogoLoader получает изображение логотипа из загруженного файла или по ссылке.
// По ссылке ходит только по http(s) и только на публичные адреса.
type LogoLoader struct {
	httpClient   *http.Client
	maxBytes     int64
	allowPrivate bool
	log          logger.Logger
}

// LogoOption настраивает LogoLoader
type LogoOption func(*LogoLoader)

// WithPrivateNetworks разрешает загрузку с loopback и частных адресов
func WithPrivateNetworks() LogoOption {
	return func(l *LogoLoader) { l.allowPrivate = true }
}

func NewLogoLoader(timeout time.Duration, maxBytes int64, log logger.Logger, opts ...LogoOption) *LogoLoader {
	l := &LogoLoader{maxBytes: maxBytes, log: log}
	for _, opt := range opts {
		opt(l)
	}

	dialer := &net.Dialer{Timeout: timeout}
	if !l.allowPrivate {
		dialer.Control = publicOnly
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}
	l.httpClient = &http.Client{
		Timeout:       timeout,
		Transport:     transport,
		CheckRedirect: l.checkRedirect,
	}
	return l
}

func (l *LogoLoader) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxLogoRedirects {
		return fmt.Errorf("logo fetch: stopped after %d redirects", maxLogoRedirects)
	}
	return l.checkURL(req.URL)
}

// checkURL отсекает чужие схемы и адреса, записанные IP-литералом.
// Имена хостов проверяются при соединении в publicOnly.
func (l *LogoLoader) checkURL(u *url.URL) error {
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrForbiddenLogo, u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("%w: empty host", ErrForbiddenLogo)
	}
	if l.allowPrivate {
		return nil
	}
	if ip := net.ParseIP(u.Hostname()); ip != nil && !publicIP(ip) {
		return fmt.Errorf("%w: %s", ErrForbiddenLogo, ip)
	}
	return nil
}

// publicOnly - net.Dialer.Control; вызывается с уже разрешенным адресом
func publicOnly(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil || !publicIP(ip) {
		return fmt.Errorf("%w: %s", ErrForbiddenLogo, host)
	}
	return nil
}

var sharedAddressSpace = &net.IPNet{IP: net.IPv4(100, 64, 0, 0), Mask: net.CIDRMask(10, 32)}

func publicIP(ip net.IP) bool {
	switch {
	case ip.IsLoopback(), ip.IsPrivate(), ip.IsUnspecified(),
		ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast(),
		ip.IsInterfaceLocalMulticast(), ip.IsMulticast():
		return false
	}
	return !sharedAddressSpace.Contains(ip)
}

// Load декодирует логотип. Загруженный файл имеет приоритет над ссылкой.
func (l *LogoLoader) Load(ctx context.Context, src models.LogoSource) (image.Image, error) {
	if src.HasUpload() {
		return DecodeLogo(src.Upload)
	}

	raw := strings.TrimSpace(src.URL)
	if raw == "" {
		return nil, ErrNoLogo
	}
	if strings.HasPrefix(raw, "data:") {
		_, data, err := export.ParseDataURL(raw)
		if err != nil {
			return nil, err
		}
		return DecodeLogo(data)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("logo request: %w", err)
	}
	if err := l.checkURL(u); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("logo request: %w", err)
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("logo fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("logo fetch: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("logo read: %w", err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("logo exceeds %d bytes", l.maxBytes)
	}
	l.log.Debugf("Fetched logo %s (%d bytes)", raw, len(data))

	return DecodeLogo(data)
}

// DecodeLogo декодирует PNG, JPEG или GIF
func DecodeLogo(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("logo decode: %w", err)
	}
	return img, nil
}
