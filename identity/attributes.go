package identity

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/takakv/msc-wallet/serial"
)

// AttributeTag identifies an identity attribute.
type AttributeTag uint8

// AttributeNames lists the attribute names by tag.
var AttributeNames = []string{
	"firstName",
	"lastName",
	"sex",
	"dob",
	"countryOfResidence",
	"nationality",
	"idDocType",
	"idDocNo",
	"idDocIssuer",
	"idDocIssuedAt",
	"idDocExpiresAt",
	"nationalIdNo",
	"taxIdNo",
}

// maxAttributeLen bounds attribute values so they fit a one-byte length prefix.
const maxAttributeLen = 255

// ParseAttributeTag accepts an attribute name or its decimal tag.
func ParseAttributeTag(s string) (AttributeTag, error) {
	for i, name := range AttributeNames {
		if name == s {
			return AttributeTag(i), nil
		}
	}
	if n, err := strconv.ParseUint(s, 10, 8); err == nil && int(n) < len(AttributeNames) {
		return AttributeTag(n), nil
	}
	return 0, errors.Wrapf(ErrUnknownAttribute, "%q", s)
}

func (t AttributeTag) String() string {
	if int(t) < len(AttributeNames) {
		return AttributeNames[t]
	}
	return fmt.Sprintf("attribute(%d)", uint8(t))
}

func (t AttributeTag) MarshalText() ([]byte, error) {
	if int(t) >= len(AttributeNames) {
		return nil, errors.Wrapf(ErrUnknownAttribute, "tag %d", uint8(t))
	}
	return []byte(AttributeNames[t]), nil
}

func (t *AttributeTag) UnmarshalText(text []byte) error {
	tag, err := ParseAttributeTag(string(text))
	if err != nil {
		return err
	}
	*t = tag
	return nil
}

// attributeScalar maps an attribute value to the message signed for it.
func attributeScalar(tag AttributeTag, value string, n *big.Int) *big.Int {
	h := sha256.New()
	h.Write([]byte{byte(tag), byte(len(value))})
	h.Write([]byte(value))
	s := new(big.Int).SetBytes(h.Sum(nil))
	return s.Mod(s, n)
}

// hashToScalar maps labelled data to a scalar modulo n.
func hashToScalar(label string, data []byte, n *big.Int) *big.Int {
	h := sha256.New()
	h.Write([]byte(label))
	h.Write(data)
	s := new(big.Int).SetBytes(h.Sum(nil))
	return s.Mod(s, n)
}

// YearMonth is a calendar month, written as YYYYMM.
type YearMonth struct {
	Year  uint16
	Month uint8
}

// ParseYearMonth parses the YYYYMM form.
func ParseYearMonth(s string) (YearMonth, error) {
	if len(s) != 6 {
		return YearMonth{}, errors.Errorf("invalid year-month %q", s)
	}
	y, err := strconv.ParseUint(s[:4], 10, 16)
	if err != nil {
		return YearMonth{}, errors.Errorf("invalid year-month %q", s)
	}
	m, err := strconv.ParseUint(s[4:], 10, 8)
	if err != nil || m < 1 || m > 12 {
		return YearMonth{}, errors.Errorf("invalid year-month %q", s)
	}
	return YearMonth{Year: uint16(y), Month: uint8(m)}, nil
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d%02d", ym.Year, ym.Month)
}

func (ym YearMonth) scalar() *big.Int {
	return big.NewInt(int64(ym.Year)<<8 | int64(ym.Month))
}

func (ym *YearMonth) Compose(v serial.Visitor) {
	v.U16(&ym.Year)
	v.U8(&ym.Month)
	if v.Decoding() && (ym.Month < 1 || ym.Month > 12) {
		v.Fail(errors.Errorf("invalid month %d", ym.Month))
	}
}

func (ym YearMonth) MarshalText() ([]byte, error) {
	return []byte(ym.String()), nil
}

func (ym *YearMonth) UnmarshalText(text []byte) error {
	parsed, err := ParseYearMonth(string(text))
	if err != nil {
		return err
	}
	*ym = parsed
	return nil
}

// AttributeList is the set of attributes an identity provider vouches for.
type AttributeList struct {
	ValidTo     YearMonth               `json:"validTo"`
	CreatedAt   YearMonth               `json:"createdAt"`
	MaxAccounts uint8                   `json:"maxAccounts"`
	Alist       map[AttributeTag]string `json:"chosenAttributes"`
}

func (al *AttributeList) validate() error {
	for tag, value := range al.Alist {
		if int(tag) >= len(AttributeNames) {
			return errors.Wrapf(ErrUnknownAttribute, "tag %d", uint8(tag))
		}
		if len(value) > maxAttributeLen {
			return errors.Errorf("attribute %s is too long", tag)
		}
	}
	return nil
}

func (al *AttributeList) UnmarshalJSON(data []byte) error {
	type plain AttributeList
	var tmp plain
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*al = AttributeList(tmp)
	return al.validate()
}

func sortedTags(m map[AttributeTag]string) []AttributeTag {
	tags := make([]AttributeTag, 0, len(m))
	for t := range m {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// composeAttributes encodes attribute maps in ascending tag order.
func composeAttributes(v serial.Visitor, m *map[AttributeTag]string) {
	tags := sortedTags(*m)
	n := len(tags)
	v.Len(2, &n)
	if v.Decoding() {
		*m = make(map[AttributeTag]string, n)
		tags = make([]AttributeTag, n)
	}
	for i := 0; i < n; i++ {
		tag := uint8(tags[i])
		value := (*m)[tags[i]]
		v.U8(&tag)
		v.String(1, &value)
		if v.Decoding() {
			if int(tag) >= len(AttributeNames) {
				v.Fail(errors.Wrapf(ErrUnknownAttribute, "tag %d", tag))
				return
			}
			if i > 0 && AttributeTag(tag) <= tags[i-1] {
				v.Fail(errors.New("attribute tags not strictly increasing"))
				return
			}
			tags[i] = AttributeTag(tag)
			(*m)[AttributeTag(tag)] = value
		}
	}
}

func (al *AttributeList) Compose(v serial.Visitor) {
	v.Value(&al.ValidTo)
	v.Value(&al.CreatedAt)
	v.U8(&al.MaxAccounts)
	composeAttributes(v, &al.Alist)
}
