package sheet

import "errors"

// Failure kinds returned by Client. They are wrapped with request details;
// compare with errors.Is.
var (
	// ErrUnreachable is a transport-level failure: DNS, refused connection, timeout.
	ErrUnreachable = errors.New("sheet endpoint unreachable")
	// ErrUnexpectedHTML means the endpoint answered with an HTML page, almost
	// always a sign-in or permission page because the web app is not shared publicly.
	ErrUnexpectedHTML = errors.New("sheet endpoint returned HTML instead of JSON")
	// ErrMalformedPayload means the body was neither HTML nor decodable JSON.
	ErrMalformedPayload = errors.New("sheet endpoint returned a malformed payload")
	// ErrRemoteRejected means the endpoint answered with a well-formed error status.
	ErrRemoteRejected = errors.New("sheet endpoint rejected the request")
)

// HTMLHint is the remediation shown to operators when ErrUnexpectedHTML occurs.
const HTMLHint = `redeploy the sheet web app with "Execute as: Me" and "Who has access: Anyone", then paste the /exec URL`
