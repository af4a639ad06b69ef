package core

import (
	"errors"
	"fmt"
)

// ErrSessionExpired is returned when the binding list reports the
// credential as logged out.
var ErrSessionExpired = errors.New("用户登录已过期，请重新登录")

// Auth chain steps
const (
	StepDeviceProfile = "device profile"
	StepAuthorization = "authorization"
	StepCredential    = "credential"
	StepBinding       = "binding list"
)

// ProtocolError means upstream answered with an unexpected status or shape.
// Message holds the raw upstream text.
type ProtocolError struct {
	Step    string
	Code    int
	Message string
}

func (e *ProtocolError) Error() string {
	if e.Step == StepBinding {
		return fmt.Sprintf("获取绑定列表失败: %s", e.Message)
	}
	return fmt.Sprintf("%s failed: %s", e.Step, e.Message)
}

// CryptoError wraps a failure in one of the obfuscation steps.
type CryptoError struct {
	Op  string
	Err error
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CryptoError) Unwrap() error {
	return e.Err
}

// NetworkError is the last failure after every attempt was used.
type NetworkError struct {
	Attempts int
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
