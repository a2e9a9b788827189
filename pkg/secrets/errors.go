package secrets

import (
	"errors"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/smithy-go"
	"github.com/hashicorp/vault/api"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// ReleaseFailedMessage is returned by Release when the client could not be shut down.
const ReleaseFailedMessage = "Error while trying to shutdown secrets manager client"

var (
	// ErrInvalidParameter is raised locally for names or keys rejected before
	// any call reaches the store.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidState means the store returned neither a value nor an error.
	ErrInvalidState = errors.New("no secret value returned")

	// ErrUnsupportedFormat means the secret is stored as binary.
	ErrUnsupportedFormat = errors.New("secret can only be fetched when stored as a string")

	// ErrParse means the secret string is not a JSON object.
	ErrParse = errors.New("secret is not a valid JSON object")

	// ErrMissingKey means the requested field is absent from the secret JSON.
	ErrMissingKey = errors.New("key not found in secret")

	// ErrReleased is returned by fetches on an accessor after Release.
	ErrReleased = errors.New("secret accessor already released")
)

// IsInvalidParameter reports whether err is an invalid-parameter error from
// any supported store.
func IsInvalidParameter(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInvalidParameter) {
		return true
	}
	if awsErrorCode(err) == (&types.InvalidParameterException{}).ErrorCode() {
		return true
	}
	if apierrors.IsInvalid(err) {
		return true
	}
	return grpcCode(err) == codes.InvalidArgument
}

// IsInvalidRequest reports whether err is an invalid-request error from any
// supported store.
func IsInvalidRequest(err error) bool {
	if err == nil {
		return false
	}
	if awsErrorCode(err) == (&types.InvalidRequestException{}).ErrorCode() {
		return true
	}
	var respErr *api.ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == http.StatusBadRequest {
		return true
	}
	if apierrors.IsBadRequest(err) {
		return true
	}
	return grpcCode(err) == codes.FailedPrecondition
}

// IsNotFound reports whether err means the named secret does not exist.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if awsErrorCode(err) == (&types.ResourceNotFoundException{}).ErrorCode() {
		return true
	}
	if errors.Is(err, api.ErrSecretNotFound) {
		return true
	}
	var respErr *api.ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
		return true
	}
	if apierrors.IsNotFound(err) {
		return true
	}
	return grpcCode(err) == codes.NotFound
}

// awsErrorCode returns the Secrets Manager error code carried by err, or "".
func awsErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// grpcCode returns codes.OK for errors that carry no gRPC status.
func grpcCode(err error) codes.Code {
	var se interface{ GRPCStatus() *status.Status }
	if errors.As(err, &se) {
		return se.GRPCStatus().Code()
	}
	return codes.OK
}
