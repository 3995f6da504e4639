package model

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"strings"
)

// Region is a reference-data record users are assigned to
type Region struct {
	RegionID    int    `db:"region_id" json:"region_id"`
	RegionName  string `db:"region_name" json:"region_name"`
	RegionCode  string `db:"region_code" json:"region_code"`
	RegionKey   string `db:"region_key" json:"region_key"`
	Description string `db:"description" json:"description"`
	RowVersion  int64  `db:"row_version" json:"-"`
}

// RegionForm is the create/edit form posted by the region pages
type RegionForm struct {
	RegionID    int    `form:"RegionId"`
	RegionName  string `form:"RegionName" display:"Region" binding:"required,notblank,strlen=1~100"`
	RegionCode  string `form:"RegionCode" display:"Region Code" binding:"required,notblank,strlen=1~50"`
	RegionKey   string `form:"RegionKey" display:"Region Key" binding:"required,notblank,strlen=1~50"`
	Description string `form:"Description" display:"Description" binding:"strlen=0~100"`
	IsNew       bool   `form:"IsNew"`
	RowVersion  string `form:"RowVersion"`
}

// ToRegion maps the form onto the entity. An undecodable row version maps to zero,
// which never matches a stored version.
func (f RegionForm) ToRegion() Region {
	version, _ := DecodeRowVersion(f.RowVersion)
	return Region{
		RegionID:    f.RegionID,
		RegionName:  strings.TrimSpace(f.RegionName),
		RegionCode:  strings.TrimSpace(f.RegionCode),
		RegionKey:   strings.TrimSpace(f.RegionKey),
		Description: strings.TrimSpace(f.Description),
		RowVersion:  version,
	}
}

// NewRegionForm builds the edit form for a stored region
func NewRegionForm(r Region) RegionForm {
	return RegionForm{
		RegionID:    r.RegionID,
		RegionName:  r.RegionName,
		RegionCode:  r.RegionCode,
		RegionKey:   r.RegionKey,
		Description: r.Description,
		RowVersion:  EncodeRowVersion(r.RowVersion),
	}
}

// UpdateRegionResult carries the outcome of an optimistic update
type UpdateRegionResult struct {
	ValidationResults []ValidationResult
	RowVersion        int64
}

// Succeeded reports whether the update was stored
func (r UpdateRegionResult) Succeeded() bool {
	return len(r.ValidationResults) == 0
}

// SelectListItem is one option of a dropdown
type SelectListItem struct {
	Text     string
	Value    string
	Selected bool
}

var errInvalidRowVersion = errors.New("invalid row version")

// EncodeRowVersion renders a row version as the opaque token posted back by forms.
func EncodeRowVersion(v int64) string {
	if v == 0 {
		return ""
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(v))
	return base64.StdEncoding.EncodeToString(buf)
}

// DecodeRowVersion parses a token produced by EncodeRowVersion
func DecodeRowVersion(token string) (int64, error) {
	if token == "" {
		return 0, nil
	}
	buf, err := base64.StdEncoding.DecodeString(token)
	if err != nil || len(buf) != 8 {
		return 0, errInvalidRowVersion
	}
	return int64(binary.BigEndian.Uint64(buf)), nil
}
