package message

import "fmt"

// Diameter Vendor Codes
const (
	VENDOR_NONE                   = 0
	VENDOR_HEWLETT_PACKARD        = 11
	VENDOR_SUN_MICROSYSTEMS_INC   = 42
	VENDOR_MERIT_NETWORKS         = 61
	VENDOR_NOKIA                  = 94
	VENDOR_NOKIA_SIEMENS_NETWORKS = 28458
	VENDOR_ERICSSON               = 193
	VENDOR_US_ROBOTICS_CORP       = 429
	VENDOR_ALU_NETWORK            = 637
	VENDOR_LUCENT_TECHNOLOGIES    = 1751
	VENDOR_HUAWEI                 = 2011
	VENDOR_DEUTSCHE_TELEKOM_AG    = 2937
	VENDOR_3GPP2                  = 5535
	VENDOR_CISCO                  = 5771
	VENDOR_SK_TELECOM             = 5806
	VENDOR_3GPP                   = 10415
	VENDOR_VODAFONE               = 12645
	VENDOR_VERIZON_WIRELESS       = 12951
	VENDOR_ETSI                   = 13019
	VENDOR_TANGO_TELECOM_LIMITED  = 13421
	VENDOR_CHINA_TELECOM          = 81000
	VENDOR_3GPP_CX_DX             = 16777216
)

var vendorIDToName = map[uint32]string{
	VENDOR_HEWLETT_PACKARD:        "Hewlett-Packard",
	VENDOR_SUN_MICROSYSTEMS_INC:   "Sun Microsystems",
	VENDOR_MERIT_NETWORKS:         "Merit Networks",
	VENDOR_NOKIA:                  "Nokia",
	VENDOR_NOKIA_SIEMENS_NETWORKS: "Nokia Siemens Networks",
	VENDOR_ERICSSON:               "Ericsson",
	VENDOR_US_ROBOTICS_CORP:       "US Robotics",
	VENDOR_ALU_NETWORK:            "Alcatel-Lucent",
	VENDOR_LUCENT_TECHNOLOGIES:    "Lucent Technologies",
	VENDOR_HUAWEI:                 "Huawei",
	VENDOR_DEUTSCHE_TELEKOM_AG:    "Deutsche Telekom",
	VENDOR_3GPP2:                  "3GPP2",
	VENDOR_CISCO:                  "Cisco",
	VENDOR_SK_TELECOM:             "SK Telecom",
	VENDOR_3GPP:                   "3GPP",
	VENDOR_VODAFONE:               "Vodafone",
	VENDOR_VERIZON_WIRELESS:       "Verizon Wireless",
	VENDOR_ETSI:                   "ETSI",
	VENDOR_TANGO_TELECOM_LIMITED:  "Tango Telecom",
	VENDOR_CHINA_TELECOM:          "China Telecom",
	VENDOR_3GPP_CX_DX:             "3GPP Cx/Dx",
}

// VendorName renders a vendor-id for diagnostics. Avp.String() calls this
// for any AVP carrying VENDOR_FLAG.
func VendorName(vendorID uint32) string {
	if vendorID == VENDOR_NONE {
		return "None"
	}
	if name, ok := vendorIDToName[vendorID]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", vendorID)
}