// Package vnpay builds signed VNPay payment URLs and verifies return callbacks.
package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/taomall/marketplace-backend/pkg/config"
)

const (
	paramSecureHash     = "vnp_SecureHash"
	paramSecureHashType = "vnp_SecureHashType"
	dateLayout          = "20060102150405"

	// ResponseSuccess is the vnp_ResponseCode for a settled payment.
	ResponseSuccess = "00"
)

var (
	ErrNotConfigured    = errors.New("vnpay is not configured")
	ErrInvalidSignature = errors.New("vnpay signature mismatch")

	// VNPay timestamps are Vietnam local time.
	vietnam = time.FixedZone("ICT", 7*60*60)
)

// PaymentRequest describes one redirect. Amount is in VND; the gateway
// receives it multiplied by 100.
type PaymentRequest struct {
	TxnRef    string
	Amount    int64
	OrderInfo string
	ClientIP  string
}

// ReturnResult is the verified content of a gateway callback.
type ReturnResult struct {
	TxnRef        string
	TransactionNo string
	ResponseCode  string
	BankCode      string
	Amount        int64
	Success       bool
}

type Client struct {
	cfg config.VNPayConfig
	now func() time.Time
}

func New(cfg config.VNPayConfig) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(cfg.PayURL) == "" {
		return nil, fmt.Errorf("vnpay pay url is required")
	}
	return &Client{cfg: cfg, now: time.Now}, nil
}

// BuildPaymentURL returns the gateway URL with a vnp_SecureHash over the
// sorted, query-escaped parameters.
func (c *Client) BuildPaymentURL(req PaymentRequest) (string, error) {
	if c == nil {
		return "", ErrNotConfigured
	}
	if strings.TrimSpace(req.TxnRef) == "" {
		return "", fmt.Errorf("txn ref is required")
	}
	if req.Amount <= 0 {
		return "", fmt.Errorf("amount must be positive")
	}

	now := c.now().In(vietnam)
	params := url.Values{}
	params.Set("vnp_Version", c.cfg.Version)
	params.Set("vnp_Command", "pay")
	params.Set("vnp_TmnCode", c.cfg.TmnCode)
	params.Set("vnp_Amount", strconv.FormatInt(req.Amount*100, 10))
	params.Set("vnp_CurrCode", "VND")
	params.Set("vnp_TxnRef", req.TxnRef)
	params.Set("vnp_OrderInfo", orderInfo(req))
	params.Set("vnp_OrderType", "other")
	params.Set("vnp_Locale", c.cfg.Locale)
	params.Set("vnp_ReturnUrl", c.cfg.ReturnURL)
	params.Set("vnp_IpAddr", clientIP(req.ClientIP))
	params.Set("vnp_CreateDate", now.Format(dateLayout))
	if c.cfg.ExpireIn > 0 {
		params.Set("vnp_ExpireDate", now.Add(c.cfg.ExpireIn).Format(dateLayout))
	}

	signed := params.Encode()
	return fmt.Sprintf("%s?%s&%s=%s", c.cfg.PayURL, signed, paramSecureHash, Sign(c.cfg.HashSecret, signed)), nil
}

// VerifyReturn checks the callback signature and decodes the outcome. A
// declined payment is a valid result with Success=false.
func (c *Client) VerifyReturn(values url.Values) (ReturnResult, error) {
	if c == nil {
		return ReturnResult{}, ErrNotConfigured
	}
	got := values.Get(paramSecureHash)
	if got == "" {
		return ReturnResult{}, ErrInvalidSignature
	}

	unsigned := url.Values{}
	for k, v := range values {
		if k == paramSecureHash || k == paramSecureHashType || !strings.HasPrefix(k, "vnp_") {
			continue
		}
		unsigned[k] = v
	}
	want := Sign(c.cfg.HashSecret, unsigned.Encode())
	if !hmac.Equal([]byte(strings.ToLower(got)), []byte(want)) {
		return ReturnResult{}, ErrInvalidSignature
	}

	minor, err := strconv.ParseInt(values.Get("vnp_Amount"), 10, 64)
	if err != nil {
		return ReturnResult{}, fmt.Errorf("vnpay amount: %w", err)
	}
	res := ReturnResult{
		TxnRef:        values.Get("vnp_TxnRef"),
		TransactionNo: values.Get("vnp_TransactionNo"),
		ResponseCode:  values.Get("vnp_ResponseCode"),
		BankCode:      values.Get("vnp_BankCode"),
		Amount:        minor / 100,
	}
	status := values.Get("vnp_TransactionStatus")
	res.Success = res.ResponseCode == ResponseSuccess && (status == "" || status == ResponseSuccess)
	return res, nil
}

// Sign returns the lowercase hex HMAC-SHA512 of data.
func Sign(secret, data string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

func orderInfo(req PaymentRequest) string {
	if info := strings.TrimSpace(req.OrderInfo); info != "" {
		return info
	}
	return "Thanh toan don hang " + req.TxnRef
}

func clientIP(ip string) string {
	if ip = strings.TrimSpace(ip); ip == "" {
		return "127.0.0.1"
	}
	return ip
}
