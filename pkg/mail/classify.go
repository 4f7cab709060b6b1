package mail

import (
	"context"
	"errors"
	"net"
	"net/textproto"
	"strings"

	"github.com/aws/smithy-go"
)

// Class groups delivery failures by what the user can do about them.
type Class string

const (
	ClassAuth      Class = "auth"      // credentials rejected
	ClassRejected  Class = "rejected"  // permanent refusal of sender or recipient
	ClassTemporary Class = "temporary" // 4xx reply or throttling
	ClassNetwork   Class = "network"
	ClassTimeout   Class = "timeout"
	ClassUnknown   Class = "unknown"
)

// Classify inspects a transport error.
func Classify(err error) Class {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTimeout
	}

	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		return classifySMTPCode(tpErr.Code)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "TooManyRequestsException", "LimitExceededException":
			return ClassTemporary
		case "MessageRejected", "MailFromDomainNotVerifiedException", "AccountSuspendedException", "SendingPausedException":
			return ClassRejected
		case "UnrecognizedClientException", "InvalidClientTokenId", "AccessDeniedException", "SignatureDoesNotMatch":
			return ClassAuth
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ClassTimeout
		}
		return ClassNetwork
	}

	// some SMTP clients flatten replies into strings
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "535"), strings.Contains(msg, "534"), strings.Contains(msg, "authentication"), strings.Contains(msg, "username and password not accepted"):
		return ClassAuth
	case strings.Contains(msg, "timeout"):
		return ClassTimeout
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"):
		return ClassNetwork
	}
	return ClassUnknown
}

func classifySMTPCode(code int) Class {
	switch {
	case code == 530 || code == 534 || code == 535:
		return ClassAuth
	case code >= 500:
		return ClassRejected
	case code >= 400:
		return ClassTemporary
	default:
		return ClassUnknown
	}
}
