package messages

// RequestKind enumerates the operations a client can request.
type RequestKind uint8

const (
	// Refresh asks the close group to refresh its copy of some account data.
	Refresh RequestKind = iota
	// Get retrieves a piece of data.
	Get
	// Put stores a new piece of data.
	Put
	// Post updates an existing piece of data.
	Post
	// Delete removes a piece of data.
	Delete
	// GetAccountInfo retrieves the account information of a client.
	GetAccountInfo
)

// String ...
func (k RequestKind) String() string {
	switch k {
	case Refresh:
		return "Refresh"
	case Get:
		return "Get"
	case Put:
		return "Put"
	case Post:
		return "Post"
	case Delete:
		return "Delete"
	case GetAccountInfo:
		return "GetAccountInfo"
	default:
		return "Unknown"
	}
}

// ResponseKinds returns the success and failure response kinds that answer a
// request of this kind. Refresh requests are never answered.
func (k RequestKind) ResponseKinds() (success ResponseKind, failure ResponseKind, ok bool) {
	switch k {
	case Get:
		return GetSuccess, GetFailure, true
	case Put:
		return PutSuccess, PutFailure, true
	case Post:
		return PostSuccess, PostFailure, true
	case Delete:
		return DeleteSuccess, DeleteFailure, true
	case GetAccountInfo:
		return GetAccountInfoSuccess, GetAccountInfoFailure, true
	default:
		return 0, 0, false
	}
}

// ResponseKind enumerates the answers to client requests.
type ResponseKind uint8

const (
	GetSuccess ResponseKind = iota
	GetFailure
	PutSuccess
	PutFailure
	PostSuccess
	PostFailure
	DeleteSuccess
	DeleteFailure
	GetAccountInfoSuccess
	GetAccountInfoFailure
)

// String ...
func (k ResponseKind) String() string {
	switch k {
	case GetSuccess:
		return "GetSuccess"
	case GetFailure:
		return "GetFailure"
	case PutSuccess:
		return "PutSuccess"
	case PutFailure:
		return "PutFailure"
	case PostSuccess:
		return "PostSuccess"
	case PostFailure:
		return "PostFailure"
	case DeleteSuccess:
		return "DeleteSuccess"
	case DeleteFailure:
		return "DeleteFailure"
	case GetAccountInfoSuccess:
		return "GetAccountInfoSuccess"
	case GetAccountInfoFailure:
		return "GetAccountInfoFailure"
	default:
		return "Unknown"
	}
}

// Succeeded reports whether k is one of the success kinds.
func (k ResponseKind) Succeeded() bool {
	switch k {
	case GetSuccess, PutSuccess, PostSuccess, DeleteSuccess, GetAccountInfoSuccess:
		return true
	default:
		return false
	}
}

// Request is a client request for data stored in the network. ID is chosen by
// the requesting node and echoed in the Response.
type Request struct {
	Kind RequestKind
	ID   uint64
	Name string
	Data []byte
}

// Response answers a Request. Reason is only set on failures.
type Response struct {
	Kind      ResponseKind
	RequestID uint64
	Name      string
	Data      []byte
	Reason    string
}

// NewResponse builds the success or failure response to req. A nil err means
// success.
func NewResponse(req *Request, data []byte, err error) *Response {
	success, failure, _ := req.Kind.ResponseKinds()

	resp := &Response{
		Kind:      success,
		RequestID: req.ID,
		Name:      req.Name,
		Data:      data,
	}

	if err != nil {
		resp.Kind = failure
		resp.Data = nil
		resp.Reason = err.Error()
	}

	return resp
}
