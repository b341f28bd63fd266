package baidu

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/forPelevin/autosub/internal/types"
)

const (
	requestTimeout = 60 * time.Second
	// tokenSkew renews the access token a little before Baidu expires it.
	tokenSkew = 5 * time.Minute

	errNoAuthFailed = 3302
)

type Options struct {
	AppID        string
	APIKey       string
	SecretKey    string
	CUID         string
	TokenBaseURL string
	ASRBaseURL   string
	HTTPClient   *http.Client
}

// Adapter talks to the Baidu short speech recognition REST API. The OAuth
// access token is fetched on first use and shared by all callers.
type Adapter struct {
	apiKey    string
	secretKey string
	cuid      string
	tokenURL  string
	asrURL    string
	client    *http.Client
	now       func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

func New(opts Options) *Adapter {
	cuid := strings.TrimSpace(opts.CUID)
	if cuid == "" {
		cuid = strings.TrimSpace(opts.AppID)
	}
	if cuid == "" {
		cuid = uuid.NewString()
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Adapter{
		apiKey:    opts.APIKey,
		secretKey: opts.SecretKey,
		cuid:      cuid,
		tokenURL:  normalizeBaseURL(opts.TokenBaseURL, DefaultTokenBaseURL) + "/oauth/2.0/token",
		asrURL:    normalizeBaseURL(opts.ASRBaseURL, DefaultASRBaseURL) + "/server_api",
		client:    client,
		now:       time.Now,
	}
}

type asrRequest struct {
	Format  string `json:"format"`
	Rate    int    `json:"rate"`
	Channel int    `json:"channel"`
	CUID    string `json:"cuid"`
	Token   string `json:"token"`
	DevPID  int    `json:"dev_pid"`
	Speech  string `json:"speech"`
	Len     int    `json:"len"`
}

type asrResponse struct {
	ErrNo  int      `json:"err_no"`
	ErrMsg string   `json:"err_msg"`
	SN     string   `json:"sn"`
	Result []string `json:"result"`
}

func (a *Adapter) Recognize(ctx context.Context, clip []byte, rate int, lang string) (types.Recognition, error) {
	devPID, err := strconv.Atoi(strings.TrimSpace(lang))
	if err != nil {
		return types.Recognition{}, fmt.Errorf("baidu dev_pid %q: %w", lang, err)
	}
	token, err := a.accessToken(ctx)
	if err != nil {
		return types.Recognition{}, err
	}

	body, err := json.Marshal(asrRequest{
		Format:  "wav",
		Rate:    rate,
		Channel: 1,
		CUID:    a.cuid,
		Token:   token,
		DevPID:  devPID,
		Speech:  base64.StdEncoding.EncodeToString(clip),
		Len:     len(clip),
	})
	if err != nil {
		return types.Recognition{}, fmt.Errorf("marshal asr request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, a.asrURL, bytes.NewReader(body))
	if err != nil {
		return types.Recognition{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out asrResponse
	if err := a.do(reqCtx, req, &out); err != nil {
		return types.Recognition{}, fmt.Errorf("baidu asr: %w", err)
	}
	if out.ErrNo == errNoAuthFailed {
		a.invalidateToken(token)
	}
	return types.Recognition{Code: out.ErrNo, Message: out.ErrMsg, Candidates: out.Result}, nil
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (a *Adapter) accessToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && a.now().Before(a.expires) {
		return a.token, nil
	}

	q := url.Values{}
	q.Set("grant_type", "client_credentials")
	q.Set("client_id", a.apiKey)
	q.Set("client_secret", a.secretKey)

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, a.tokenURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	var out tokenResponse
	if err := a.do(reqCtx, req, &out); err != nil {
		return "", fmt.Errorf("baidu token: %w", err)
	}
	if out.Error != "" || out.AccessToken == "" {
		return "", fmt.Errorf("baidu token: %s: %s", out.Error, out.ErrorDescription)
	}

	ttl := time.Duration(out.ExpiresIn) * time.Second
	if ttl > 2*tokenSkew {
		ttl -= tokenSkew
	}
	a.token = out.AccessToken
	a.expires = a.now().Add(ttl)
	return a.token, nil
}

func (a *Adapter) invalidateToken(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token == token {
		a.token = ""
	}
}

func (a *Adapter) do(reqCtx context.Context, req *http.Request, out any) error {
	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("timeout after %s", requestTimeout)
		}
		if errors.Is(reqCtx.Err(), context.Canceled) {
			return reqCtx.Err()
		}
		return errors.New(a.redact(err.Error()))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("status %d and read body failed: %v", resp.StatusCode, readErr)
		}
		return fmt.Errorf("status %d: %s", resp.StatusCode, truncate(a.redact(string(rb)), 400))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (a *Adapter) redact(s string) string {
	return redactSecrets(s, a.apiKey, a.secretKey)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	tokenFieldRE  = regexp.MustCompile(`(?i)((?:access_)?token\s*[:=]\s*"?)([^\s"&,;]+)`)
	secretFieldRE = regexp.MustCompile(`(?i)(client_secret\s*[:=]\s*"?)([^\s"&,;]+)`)
)

func redactSecrets(s string, secrets ...string) string {
	if s == "" {
		return s
	}
	out := s
	for _, secret := range secrets {
		if secret != "" {
			out = strings.ReplaceAll(out, secret, "[REDACTED]")
		}
	}
	out = tokenFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = secretFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	return out
}
