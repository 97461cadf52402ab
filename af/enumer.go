package af

import "fmt"

// String, AFIString, SAFIString, and NewAFBytes/NewAFIBytes are normally
// produced by `go generate` (dmarkham/enumer); written by hand here since
// this tree is never built with the generator.

var afiNames = map[AFI]string{
	AFI_IPV4:            "IPV4",
	AFI_IPV6:            "IPV6",
	AFI_L2VPN:           "L2VPN",
	AFI_MPLS_SECTION:    "MPLS_SECTION",
	AFI_MPLS_LSP:        "MPLS_LSP",
	AFI_MPLS_PSEUDOWIRE: "MPLS_PSEUDOWIRE",
	AFI_MT_IPV4:         "MT_IPV4",
	AFI_MT_IPV6:         "MT_IPV6",
	AFI_SFC:             "SFC",
	AFI_LS:              "LS",
	AFI_ROUTING_POLICY:  "ROUTING_POLICY",
	AFI_MPLS_NAMESPACES: "MPLS_NAMESPACES",
}

func (i AFI) String() string {
	if s, ok := afiNames[i]; ok {
		return s
	}
	return fmt.Sprintf("AFI(%d)", uint16(i))
}

// AFIString parses a trimmed AFI name (as produced by AFI.String) back to AFI.
func AFIString(s string) (AFI, error) {
	for k, v := range afiNames {
		if v == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%s does not belong to AFI values", s)
}

var safiNames = map[SAFI]string{
	SAFI_UNICAST:             "UNICAST",
	SAFI_MULTICAST:           "MULTICAST",
	SAFI_MPLS:                "MPLS",
	SAFI_MCAST_VPN:           "MCAST_VPN",
	SAFI_PLACEMENT_MSPW:      "PLACEMENT_MSPW",
	SAFI_MCAST_VPLS:          "MCAST_VPLS",
	SAFI_SFC:                 "SFC",
	SAFI_TUNNEL:              "TUNNEL",
	SAFI_VPLS:                "VPLS",
	SAFI_MDT:                 "MDT",
	SAFI_4OVER6:              "4OVER6",
	SAFI_6OVER4:              "6OVER4",
	SAFI_L1VPN_DISCOVERY:     "L1VPN_DISCOVERY",
	SAFI_EVPNS:               "EVPNS",
	SAFI_LS:                  "LS",
	SAFI_LS_VPN:              "LS_VPN",
	SAFI_SR_TE_POLICY:        "SR_TE_POLICY",
	SAFI_SD_WAN_CAPABILITIES: "SD_WAN_CAPABILITIES",
	SAFI_ROUTING_POLICY:      "ROUTING_POLICY",
	SAFI_CLASSFUL_TRANSPORT:  "CLASSFUL_TRANSPORT",
	SAFI_TUNNELED_FLOWSPEC:   "TUNNELED_FLOWSPEC",
	SAFI_MCAST_TREE:          "MCAST_TREE",
	SAFI_DPS:                 "DPS",
	SAFI_LS_SPF:              "LS_SPF",
	SAFI_CAR:                 "CAR",
	SAFI_VPN_CAR:             "VPN_CAR",
	SAFI_MUP:                 "MUP",
	SAFI_MPLS_VPN:            "MPLS_VPN",
	SAFI_MULTICAST_VPNS:      "MULTICAST_VPNS",
	SAFI_ROUTE_TARGET:        "ROUTE_TARGET",
	SAFI_FLOWSPEC:            "FLOWSPEC",
	SAFI_L3VPN_FLOWSPEC:      "L3VPN_FLOWSPEC",
	SAFI_VPN_DISCOVERY:       "VPN_DISCOVERY",
}

func (i SAFI) String() string {
	if s, ok := safiNames[i]; ok {
		return s
	}
	return fmt.Sprintf("SAFI(%d)", uint8(i))
}

// SAFIString parses a trimmed SAFI name (as produced by SAFI.String) back to SAFI.
func SAFIString(s string) (SAFI, error) {
	for k, v := range safiNames {
		if v == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%s does not belong to SAFI values", s)
}

// NewAFIBytes reads a bare 2-byte AFI from wire representation.
func NewAFIBytes(buf []byte) AFI {
	if len(buf) < 2 {
		return 0
	}
	return AFI(msb.Uint16(buf[0:2]))
}

// NewAFBytes is an alias of NewASBytes, matching callers that read AF
// (AFI+SAFI) directly off the wire.
func NewAFBytes(buf []byte) AF {
	return NewASBytes(buf)
}
