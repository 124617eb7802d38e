package stats

// Snapshot is a plain-value copy of the counters of a Stats.
type Snapshot struct {
	Total      uint64            `json:"total"`
	TotalBytes uint64            `json:"total_bytes"`
	Other      uint64            `json:"other"`
	Routes     [GroupSize]uint64 `json:"routes"`
	Unacked    uint64            `json:"unacked"`
	Direct     DirectCounts      `json:"direct"`
	Hops       HopCounts         `json:"hops"`
	User       UserCounts        `json:"user"`
}

// DirectCounts ...
type DirectCounts struct {
	NodeIdentify       uint64 `json:"node_identify"`
	NewNode            uint64 `json:"new_node"`
	ConnectionUnneeded uint64 `json:"connection_unneeded"`
}

// HopCounts ...
type HopCounts struct {
	GetNodeName           uint64 `json:"get_node_name"`
	GetNodeNameResponse   uint64 `json:"get_node_name_response"`
	ExpectCloseNode       uint64 `json:"expect_close_node"`
	GetCloseGroup         uint64 `json:"get_close_group"`
	GetCloseGroupResponse uint64 `json:"get_close_group_response"`
	ConnectionInfo        uint64 `json:"connection_info"`
	Ack                   uint64 `json:"ack"`
	GroupMessageHash      uint64 `json:"group_message_hash"`
}

// OperationCounts counts the requests of one kind and their responses.
type OperationCounts struct {
	Requests  uint64 `json:"requests"`
	Successes uint64 `json:"successes"`
	Failures  uint64 `json:"failures"`
}

// UserCounts ...
type UserCounts struct {
	Get            OperationCounts `json:"get"`
	Put            OperationCounts `json:"put"`
	Post           OperationCounts `json:"post"`
	Delete         OperationCounts `json:"delete"`
	GetAccountInfo OperationCounts `json:"get_account_info"`
	Refresh        uint64          `json:"refresh"`
}

// Snapshot returns a copy of all the counters.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Total:      s.msgTotal,
		TotalBytes: s.msgTotalBytes,
		Other:      s.msgOther,
		Routes:     s.routes,
		Unacked:    s.unackedMsgs,
		Direct: DirectCounts{
			NodeIdentify:       s.msgDirectNodeIdentify,
			NewNode:            s.msgDirectNewNode,
			ConnectionUnneeded: s.msgDirectConnectionUnneeded,
		},
		Hops: HopCounts{
			GetNodeName:           s.msgGetNodeName,
			GetNodeNameResponse:   s.msgGetNodeNameRsp,
			ExpectCloseNode:       s.msgExpectCloseNode,
			GetCloseGroup:         s.msgGetCloseGroup,
			GetCloseGroupResponse: s.msgGetCloseGroupRsp,
			ConnectionInfo:        s.msgConnectionInfo,
			Ack:                   s.msgAck,
			GroupMessageHash:      s.msgGroupMessageHash,
		},
		User: UserCounts{
			Get:            OperationCounts{s.msgGet, s.msgGetSuccess, s.msgGetFailure},
			Put:            OperationCounts{s.msgPut, s.msgPutSuccess, s.msgPutFailure},
			Post:           OperationCounts{s.msgPost, s.msgPostSuccess, s.msgPostFailure},
			Delete:         OperationCounts{s.msgDelete, s.msgDeleteSuccess, s.msgDeleteFailure},
			GetAccountInfo: OperationCounts{s.msgGetAccountInfo, s.msgGetAccountInfoSuccess, s.msgGetAccountInfoFailure},
			Refresh:        s.msgRefresh,
		},
	}
}
