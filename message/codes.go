// Definitions for common codes (AVP codes, Result-Code, Command-Code).
package message

// AVP Codes (RFC 6733 base application AVPs frequently inspected by
// callers directly, independent of dictionary lookup).
const (
	AVP_CODE_SESSION_ID          = uint32(263)
	AVP_CODE_ORIGIN_HOST         = uint32(264)
	AVP_CODE_ORIGIN_REALM        = uint32(296)
	AVP_CODE_HOST_IP_ADDRESS     = uint32(257)
	AVP_CODE_VENDOR_ID           = uint32(266)
	AVP_CODE_PRODUCT_NAME        = uint32(269)
	AVP_CODE_ORIGIN_STATE_ID     = uint32(278)
	AVP_CODE_RESULT_CODE         = uint32(268)
	AVP_CODE_ERROR_MESSAGE       = uint32(281)
	AVP_CODE_EXPERIMENTAL_RESULT = uint32(297)
	AVP_CODE_FAILED_AVP          = uint32(279)
)

var AVPCodeToName = map[uint32]string{
	AVP_CODE_SESSION_ID:          "Session-Id",
	AVP_CODE_ORIGIN_HOST:         "Origin-Host",
	AVP_CODE_ORIGIN_REALM:        "Origin-Realm",
	AVP_CODE_HOST_IP_ADDRESS:     "Host-IP-Address",
	AVP_CODE_VENDOR_ID:           "Vendor-Id",
	AVP_CODE_PRODUCT_NAME:        "Product-Name",
	AVP_CODE_ORIGIN_STATE_ID:     "Origin-State-Id",
	AVP_CODE_RESULT_CODE:         "Result-Code",
	AVP_CODE_ERROR_MESSAGE:       "Error-Message",
	AVP_CODE_EXPERIMENTAL_RESULT: "Experimental-Result",
	AVP_CODE_FAILED_AVP:          "Failed-AVP",
}

// GetAVPNameFromCode renders a base-application AVP code for diagnostics
// (Avp.String() falls back to it when the dictionary left Name empty).
func GetAVPNameFromCode(code uint32) string { return AVPCodeToName[code] }

// Command-Code table (RFC 6733 §2.4 and common applications layered on
// top of it). Peer-state commands (CER/CEA, DWR/DWA, DPR/DPA) are listed
// for GetCommandNameFromCode's benefit only — this core does not implement
// their session semantics.
const (
	COMMAND_CODE_CER = uint32(257)
	COMMAND_CODE_AAR = uint32(265)
	COMMAND_CODE_ACR = uint32(271)
	COMMAND_CODE_CCR = uint32(272)
	COMMAND_CODE_STR = uint32(275)
	COMMAND_CODE_DWR = uint32(280)
	COMMAND_CODE_DPR = uint32(282)
)

var CommandCodeToName = map[uint32]string{
	COMMAND_CODE_CER: "Capabilities-Exchange",
	COMMAND_CODE_AAR: "Authentication-Authorization",
	COMMAND_CODE_ACR: "Accounting",
	COMMAND_CODE_CCR: "Credit-Control",
	COMMAND_CODE_STR: "Session-Termination",
	COMMAND_CODE_DWR: "Device-Watchdog",
	COMMAND_CODE_DPR: "Disconnect-Peer",
}

// GetCommandNameFromCode renders a command code for diagnostics
// (DiameterHeader.String() uses it to annotate CommandCode).
func GetCommandNameFromCode(code uint32) string { return CommandCodeToName[code] }

// ResultCode is the value carried by the Result-Code AVP (code 268).
type ResultCode uint32

const (
	DIAMETER_MULTI_ROUND_AUTH ResultCode = 1001
	DIAMETER_SUCCESS          ResultCode = 2001
	DIAMETER_LIMITED_SUCCESS  ResultCode = 2002
)

const (
	DIAMETER_COMMAND_UNSUPPORTED ResultCode = 3001 + iota
	DIAMETER_UNABLE_TO_DELIVER
	DIAMETER_REALM_NOT_SERVED
	DIAMETER_TOO_BUSY
	DIAMETER_LOOP_DETECTED
	DIAMETER_REDIRECT_INDICATION
	DIAMETER_APPLICATION_UNSUPPORTED
	DIAMETER_INVALID_HDR_BITS
	DIAMETER_INVALID_AVP_BITS
	DIAMETER_UNKNOWN_PEER
)

const (
	DIAMETER_AUTHENTICATION_REJECTED ResultCode = 4001 + iota
	DIAMETER_OUT_OF_SPACE
	DIAMETER_ELECTION_LOST
)

const (
	DIAMETER_AVP_UNSUPPORTED ResultCode = 5001 + iota
	DIAMETER_UNKNOWN_SESSION_ID
	DIAMETER_AUTHORIZATION_REJECTED
	DIAMETER_INVALID_AVP_VALUE
	DIAMETER_MISSING_AVP
	DIAMETER_RESOURCES_EXCEEDED
	DIAMETER_CONTRADICTING_AVPS
	DIAMETER_AVP_NOT_ALLOWED
	DIAMETER_AVP_OCCURS_TOO_MANY_TIMES
	DIAMETER_NO_COMMON_APPLICATION
	DIAMETER_UNSUPPORTED_VERSION
	DIAMETER_UNABLE_TO_COMPLY
	DIAMETER_INVALID_BIT_IN_HEADER
	DIAMETER_INVALID_AVP_LENGTH
	DIAMETER_INVALID_MESSAGE_LENGTH
	DIAMETER_INVALID_AVP_BIT_COMBO
	DIAMETER_NO_COMMON_SECURITY
)

var ResultCodeToName = map[ResultCode]string{
	DIAMETER_SUCCESS:                   "DIAMETER_SUCCESS",
	DIAMETER_LIMITED_SUCCESS:           "DIAMETER_LIMITED_SUCCESS",
	DIAMETER_MULTI_ROUND_AUTH:          "DIAMETER_MULTI_ROUND_AUTH",
	DIAMETER_COMMAND_UNSUPPORTED:       "DIAMETER_COMMAND_UNSUPPORTED",
	DIAMETER_UNABLE_TO_DELIVER:         "DIAMETER_UNABLE_TO_DELIVER",
	DIAMETER_REALM_NOT_SERVED:          "DIAMETER_REALM_NOT_SERVED",
	DIAMETER_TOO_BUSY:                  "DIAMETER_TOO_BUSY",
	DIAMETER_LOOP_DETECTED:             "DIAMETER_LOOP_DETECTED",
	DIAMETER_REDIRECT_INDICATION:       "DIAMETER_REDIRECT_INDICATION",
	DIAMETER_APPLICATION_UNSUPPORTED:   "DIAMETER_APPLICATION_UNSUPPORTED",
	DIAMETER_INVALID_HDR_BITS:          "DIAMETER_INVALID_HDR_BITS",
	DIAMETER_INVALID_AVP_BITS:          "DIAMETER_INVALID_AVP_BITS",
	DIAMETER_UNKNOWN_PEER:              "DIAMETER_UNKNOWN_PEER",
	DIAMETER_AUTHENTICATION_REJECTED:   "DIAMETER_AUTHENTICATION_REJECTED",
	DIAMETER_OUT_OF_SPACE:              "DIAMETER_OUT_OF_SPACE",
	DIAMETER_ELECTION_LOST:             "DIAMETER_ELECTION_LOST",
	DIAMETER_AVP_UNSUPPORTED:           "DIAMETER_AVP_UNSUPPORTED",
	DIAMETER_UNKNOWN_SESSION_ID:        "DIAMETER_UNKNOWN_SESSION_ID",
	DIAMETER_AUTHORIZATION_REJECTED:    "DIAMETER_AUTHORIZATION_REJECTED",
	DIAMETER_INVALID_AVP_VALUE:         "DIAMETER_INVALID_AVP_VALUE",
	DIAMETER_MISSING_AVP:               "DIAMETER_MISSING_AVP",
	DIAMETER_RESOURCES_EXCEEDED:        "DIAMETER_RESOURCES_EXCEEDED",
	DIAMETER_CONTRADICTING_AVPS:        "DIAMETER_CONTRADICTING_AVPS",
	DIAMETER_AVP_NOT_ALLOWED:           "DIAMETER_AVP_NOT_ALLOWED",
	DIAMETER_AVP_OCCURS_TOO_MANY_TIMES: "DIAMETER_AVP_OCCURS_TOO_MANY_TIMES",
	DIAMETER_NO_COMMON_APPLICATION:     "DIAMETER_NO_COMMON_APPLICATION",
	DIAMETER_UNSUPPORTED_VERSION:       "DIAMETER_UNSUPPORTED_VERSION",
	DIAMETER_UNABLE_TO_COMPLY:          "DIAMETER_UNABLE_TO_COMPLY",
	DIAMETER_INVALID_BIT_IN_HEADER:     "DIAMETER_INVALID_BIT_IN_HEADER",
	DIAMETER_INVALID_AVP_LENGTH:        "DIAMETER_INVALID_AVP_LENGTH",
	DIAMETER_INVALID_MESSAGE_LENGTH:    "DIAMETER_INVALID_MESSAGE_LENGTH",
	DIAMETER_INVALID_AVP_BIT_COMBO:     "DIAMETER_INVALID_AVP_BIT_COMBO",
	DIAMETER_NO_COMMON_SECURITY:        "DIAMETER_NO_COMMON_SECURITY",
}

// ResultCodeOf extracts and decodes the Result-Code AVP from msg, if
// present. Answers in IETF Diameter applications are required to carry
// exactly one (RFC 6733 §7.1).
func ResultCodeOf(msg *DiameterMessage) (ResultCode, bool) {
	avp := msg.GetAvp(AVP_CODE_RESULT_CODE)
	if avp == nil {
		return 0, false
	}
	u, err := avp.Value.Unsigned32()
	if err != nil {
		return 0, false
	}
	return ResultCode(u), true
}
