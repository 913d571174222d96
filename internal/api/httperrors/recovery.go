package httperrors

import (
	"net/http"

	"github/chapool/mtw-recovery/internal/types"
)

var (
	ErrConflictSessionBusy     = NewHTTPError(http.StatusConflict, types.PublicHTTPErrorTypeSESSIONBUSY, "Another signer request is outstanding.")
	ErrConflictRecoveryRunning = NewHTTPError(http.StatusConflict, types.PublicHTTPErrorTypeRECOVERYRUNNING, "A recovery is already in progress.")
	ErrNotFoundAddress         = NewHTTPError(http.StatusNotFound, types.PublicHTTPErrorTypeNOADDRESS, "No account address is connected.")
	ErrBadRequestCallback      = NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeINVALIDCALLBACK, "The callback URL is not a signer response.")
	ErrServiceUnavailableChain = NewHTTPError(http.StatusServiceUnavailable, types.PublicHTTPErrorTypeCHAINUNAVAILABLE, "The network node is not reachable.")
)
