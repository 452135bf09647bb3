package mac

import "fmt"

// LCIDDPR is the NB-IoT-specific LCID that signals a leading DPR byte
// (spec.md §4.K: "an uplink PDU starting with LCID 0 carries a one-byte
// data-volume and power-headroom element before the actual LCID-0 SDU").
const LCIDDPR = 0

// LCIDConRes is the MAC CE logical channel id for contention resolution.
const LCIDConRes = 0x3E

// ConResCEBytes is the size of the ConRes CE including its subheader
// (spec.md §4.K: "7 B incl. subheader").
const ConResCEBytes = 7

// SyntheticBSRBytes / SyntheticBSRWaitSubframes are the fixed values the
// DPR handling path synthesises into the scheduler, per spec.md §4.K.
const (
	SyntheticBSRBytes          = 125
	SyntheticBSRWaitSubframes  = 30
)

// SubHeader is one parsed MAC PDU subheader.
type SubHeader struct {
	LCID   uint8
	Length int // SDU length in bytes; 0 for fixed-size CEs
}

// ErrTruncatedPDU is returned when a PDU ends mid-subheader or mid-SDU.
var ErrTruncatedPDU = fmt.Errorf("mac: truncated pdu")

// ParsedSDU is one logical-channel SDU extracted from a PDU, with its
// payload already sliced out of the PDU buffer (no copy).
type ParsedSDU struct {
	LCID    uint8
	Payload []byte
}

// DPRResult is what ParsePDU reports when it detects the NB-IoT DPR
// overlay on an LCID-0 SDU.
type DPRResult struct {
	Present    bool
	BSRBytes   int
	WaitSubframes int
}

// packSubHeader writes a 2-byte subheader (len<=128) or 3-byte subheader
// (len>128), matching spec.md §4.K's "2- or 3-byte SDU subheaders (3 B
// iff payload > 128 B)".
func packSubHeader(lcid uint8, length int) []byte {
	if length <= 128 {
		return []byte{lcid<<3 | 0<<5, byte(length)}
	}
	return []byte{
		lcid<<3 | 1<<5,
		byte(length >> 8),
		byte(length),
	}
}

// BuildConResCE returns the fixed-size contention-resolution MAC CE
// (subheader + 6-byte UE-identity payload = 7 bytes total).
func BuildConResCE(ueIdentity [6]byte) []byte {
	out := make([]byte, 0, ConResCEBytes)
	out = append(out, LCIDConRes<<3)
	out = append(out, ueIdentity[:]...)
	return out
}

// AssemblePDU concatenates subheaders and SDU payloads in order, the
// simplest legal MAC PDU construction for this single-user eNB (no
// padding CE, since every grant here is sized to exactly fit its
// contents).
func AssemblePDU(sdus []ParsedSDU) []byte {
	var out []byte
	for _, s := range sdus {
		out = append(out, packSubHeader(s.LCID, len(s.Payload))...)
	}
	for _, s := range sdus {
		out = append(out, s.Payload...)
	}
	return out
}

// ParsePDU walks buf's subheaders, handling the NB-IoT DPR overlay on
// LCID 0 per spec.md §4.K: the parser strips the DPR byte, leaving a
// synthetic BSR/wait-timer result alongside the now-DPR-free SDU.
func ParsePDU(buf []byte) ([]ParsedSDU, DPRResult, error) {
	var sdus []ParsedSDU
	var dpr DPRResult

	pos := 0
	type hdr struct {
		lcid   uint8
		length int
	}
	var headers []hdr
	for pos < len(buf) {
		if isFixedSizeCE(buf[pos] >> 3) {
			headers = append(headers, hdr{lcid: buf[pos] >> 3, length: fixedCELength(buf[pos] >> 3)})
			pos++
			continue
		}
		ext := (buf[pos] >> 5) & 1
		lcid := buf[pos] >> 3
		pos++
		var length int
		if ext == 0 {
			if pos >= len(buf) {
				return nil, dpr, ErrTruncatedPDU
			}
			length = int(buf[pos])
			pos++
		} else {
			if pos+1 >= len(buf) {
				return nil, dpr, ErrTruncatedPDU
			}
			length = int(buf[pos])<<8 | int(buf[pos+1])
			pos += 2
		}
		headers = append(headers, hdr{lcid: lcid, length: length})
	}

	bodyPos := pos
	for _, h := range headers {
		if bodyPos+h.length > len(buf) {
			return nil, dpr, ErrTruncatedPDU
		}
		payload := buf[bodyPos : bodyPos+h.length]
		bodyPos += h.length

		if h.lcid == LCIDDPR && !dpr.Present && len(payload) >= 1 {
			// First byte is the DPR element; strip it and synthesise the
			// buffer-status report the rest of the scheduler expects.
			dpr = DPRResult{Present: true, BSRBytes: SyntheticBSRBytes, WaitSubframes: SyntheticBSRWaitSubframes}
			payload = payload[1:]
		}
		sdus = append(sdus, ParsedSDU{LCID: h.lcid, Payload: payload})
	}
	return sdus, dpr, nil
}

// BSRKind distinguishes the three BSR CE formats spec.md §4.K names.
type BSRKind int

const (
	BSRShort BSRKind = iota
	BSRTruncated
	BSRLong
)

const (
	lcidShortBSR      uint8 = 0x1D
	lcidTruncatedBSR  uint8 = 0x1C
	lcidLongBSR       uint8 = 0x1E
)

func isFixedSizeCE(lcid uint8) bool {
	switch lcid {
	case lcidShortBSR, lcidTruncatedBSR, lcidLongBSR, LCIDConRes:
		return true
	}
	return false
}

func fixedCELength(lcid uint8) int {
	switch lcid {
	case lcidShortBSR, lcidTruncatedBSR:
		return 1
	case lcidLongBSR:
		return 3
	case LCIDConRes:
		return 6
	}
	return 0
}

// bsrBytesTable is 36.321 Table 6.1.3.1-1's buffer-size index mapping,
// truncated to the handful of levels this minimal eNB actually needs to
// distinguish (enough to drive i_sf selection, not full 3GPP fidelity).
var bsrBytesTable = [...]int{0, 10, 26, 58, 122, 250, 500, 1000, 2000, 4000, 8000, 16000, 32000, 64000, 128000, 150000}

// ParseBSR decodes a short/truncated BSR CE payload (one byte: 6-bit
// buffer size index in the low bits) into an approximate byte count.
func ParseBSR(kind BSRKind, payload []byte) (int, error) {
	if kind == BSRLong {
		if len(payload) < 3 {
			return 0, ErrTruncatedPDU
		}
		idx := payload[0] & 0x3F
		return bsrBytesTable[clampBSRIndex(idx)], nil
	}
	if len(payload) < 1 {
		return 0, ErrTruncatedPDU
	}
	idx := payload[0] & 0x3F
	return bsrBytesTable[clampBSRIndex(idx)], nil
}

func clampBSRIndex(idx uint8) int {
	if int(idx) >= len(bsrBytesTable) {
		return len(bsrBytesTable) - 1
	}
	return int(idx)
}
