package credential

import "net/http"

// statusTable maps the actions a stage knows about to client-facing statuses.
// http.StatusOK marks an action that lets the pipeline proceed. Actions not
// listed are treated as internal failures.
type statusTable map[Action]int

//nolint:gochecknoglobals // read-only lookup tables
var (
	grantTable = statusTable{
		ActionBadRequest:   http.StatusBadRequest,
		ActionUnauthorized: http.StatusUnauthorized,
		ActionForbidden:    http.StatusForbidden,
		ActionOK:           http.StatusOK,
	}
	issuanceTable = statusTable{
		ActionCallerError:  http.StatusBadRequest,
		ActionUnauthorized: http.StatusUnauthorized,
		ActionForbidden:    http.StatusForbidden,
		ActionOK:           http.StatusOK,
		ActionAccepted:     http.StatusOK,
	}
)

func tableFor(stage Stage) statusTable {
	switch stage {
	case StageIntrospection, StageParse:
		return grantTable
	case StageIssuance:
		return issuanceTable
	default:
		return nil
	}
}

// Classify maps a stage outcome to either nil (proceed) or a Failure.
// token is attached to 401 failures only.
func Classify(stage Stage, action Action, message, token string) *Failure {
	status := StatusFor(stage, action)
	if status == http.StatusOK {
		return nil
	}

	f := &Failure{
		Stage:   stage,
		Action:  action,
		Status:  status,
		Message: message,
	}
	if status == http.StatusUnauthorized {
		f.Token = token
	}
	return f
}

// StatusFor reports the HTTP status a stage assigns to action. Unknown
// actions map to 500.
func StatusFor(stage Stage, action Action) int {
	if status, ok := tableFor(stage)[action]; ok {
		return status
	}
	return http.StatusInternalServerError
}
