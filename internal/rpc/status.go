package rpc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/wso2/policy-authz/internal/domainerr"
)

// toStatus maps a domain sentinel error to the gRPC status the client
// should see. This is the one mapping table from domainerr sentinels to
// gRPC codes; the edge agent's server in internal/agent does not go through
// it and returns its few codes directly.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, domainerr.ErrPolicyStoreNotFound),
		errors.Is(err, domainerr.ErrPolicyNotFound),
		errors.Is(err, domainerr.ErrTemplateNotFound),
		errors.Is(err, domainerr.ErrSchemaNotFound),
		errors.Is(err, domainerr.ErrIdentitySourceNotFound),
		errors.Is(err, domainerr.ErrSnapshotNotFound),
		errors.Is(err, domainerr.ErrUnknownKid):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, domainerr.ErrInvalidArgument),
		errors.Is(err, domainerr.ErrInvalidTemplate),
		errors.Is(err, domainerr.ErrTemplateUnbound),
		errors.Is(err, domainerr.ErrInvalidEntityReference),
		errors.Is(err, domainerr.ErrInvalidPolicySyntax),
		errors.Is(err, domainerr.ErrSchemaValidationFailed),
		errors.Is(err, domainerr.ErrSchemaMalformed):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, domainerr.ErrDuplicatePolicyId):
		return status.Error(codes.AlreadyExists, err.Error())

	case errors.Is(err, domainerr.ErrVersionConflict),
		errors.Is(err, domainerr.ErrTemplateInUse):
		return status.Error(codes.Aborted, err.Error())

	case errors.Is(err, domainerr.ErrTokenInvalid),
		errors.Is(err, domainerr.ErrTokenFormatInvalid),
		errors.Is(err, domainerr.ErrSignatureInvalid),
		errors.Is(err, domainerr.ErrAlgorithmNotAllowed),
		errors.Is(err, domainerr.ErrTokenExpired),
		errors.Is(err, domainerr.ErrIssuerMismatch),
		errors.Is(err, domainerr.ErrAudienceMismatch):
		return status.Error(codes.Unauthenticated, err.Error())

	case errors.Is(err, domainerr.ErrUnknownIssuer),
		errors.Is(err, domainerr.ErrJwksUnavailable),
		errors.Is(err, domainerr.ErrKeyFetchFailure),
		errors.Is(err, domainerr.ErrAgentNotSynced):
		return status.Error(codes.Unavailable, err.Error())

	case errors.Is(err, domainerr.ErrCompilationError),
		errors.Is(err, domainerr.ErrEntityCycle):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.Is(err, domainerr.ErrRepository):
		return status.Error(codes.Internal, err.Error())

	default:
		return status.Error(codes.Unknown, err.Error())
	}
}
