package ethereum

// BridgeABI is the part of the Chain A bridge contract the validator uses.
// Event parameters are not indexed; everything is read from log data.
const BridgeABI = `[
	{"type":"event","name":"RelayMessage","anonymous":false,"inputs":[
		{"name":"messageID","type":"bytes32","indexed":false},
		{"name":"sender","type":"address","indexed":false},
		{"name":"recipient","type":"bytes32","indexed":false},
		{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"event","name":"ApprovedRelayMessage","anonymous":false,"inputs":[
		{"name":"messageID","type":"bytes32","indexed":false},
		{"name":"sender","type":"address","indexed":false},
		{"name":"recipient","type":"bytes32","indexed":false},
		{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"event","name":"RevertMessage","anonymous":false,"inputs":[
		{"name":"messageID","type":"bytes32","indexed":false},
		{"name":"sender","type":"address","indexed":false},
		{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"event","name":"WithdrawMessage","anonymous":false,"inputs":[
		{"name":"messageID","type":"bytes32","indexed":false}]},
	{"type":"function","name":"approveTransfer","stateMutability":"nonpayable","outputs":[],"inputs":[
		{"name":"messageID","type":"bytes32"},
		{"name":"sender","type":"address"},
		{"name":"recipient","type":"bytes32"},
		{"name":"amount","type":"uint256"}]},
	{"type":"function","name":"withdrawTransfer","stateMutability":"nonpayable","outputs":[],"inputs":[
		{"name":"messageID","type":"bytes32"},
		{"name":"sender","type":"bytes32"},
		{"name":"recipient","type":"address"},
		{"name":"amount","type":"uint256"}]},
	{"type":"function","name":"confirmTransfer","stateMutability":"nonpayable","outputs":[],"inputs":[
		{"name":"messageID","type":"bytes32"}]}
]`

const (
	eventRelayMessage         = "RelayMessage"
	eventApprovedRelayMessage = "ApprovedRelayMessage"
	eventRevertMessage        = "RevertMessage"
	eventWithdrawMessage      = "WithdrawMessage"

	methodApproveTransfer  = "approveTransfer"
	methodWithdrawTransfer = "withdrawTransfer"
	methodConfirmTransfer  = "confirmTransfer"
)
