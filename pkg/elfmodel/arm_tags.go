package elfmodel

import (
	"fmt"
)

// Scope tags of aeabi sub-subsections.
const (
	TagFile    = 1
	TagSection = 2
	TagSymbol  = 3
)

// Attribute tags with non-ULEB128 encodings.
const (
	tagCPURawName         = 4
	tagCPUName            = 5
	tagCompatibility      = 32
	tagAlsoCompatibleWith = 65
	tagConformance        = 67
)

// ARM EABI build attribute names (Addenda32, section 3).
var armTagNames = map[uint64]string{
	TagFile:               "TAG_FILE",
	TagSection:            "TAG_SECTION",
	TagSymbol:             "TAG_SYMBOL",
	tagCPURawName:         "TAG_CPU_RAW_NAME",
	tagCPUName:            "TAG_CPU_NAME",
	6:                     "TAG_CPU_ARCH",
	7:                     "TAG_CPU_ARCH_PROFILE",
	8:                     "TAG_ARM_ISA_USE",
	9:                     "TAG_THUMB_ISA_USE",
	10:                    "TAG_FP_ARCH",
	11:                    "TAG_WMMX_ARCH",
	12:                    "TAG_ADVANCED_SIMD_ARCH",
	13:                    "TAG_PCS_CONFIG",
	14:                    "TAG_ABI_PCS_R9_USE",
	15:                    "TAG_ABI_PCS_RW_DATA",
	16:                    "TAG_ABI_PCS_RO_DATA",
	17:                    "TAG_ABI_PCS_GOT_USE",
	18:                    "TAG_ABI_PCS_WCHAR_T",
	19:                    "TAG_ABI_FP_ROUNDING",
	20:                    "TAG_ABI_FP_DENORMAL",
	21:                    "TAG_ABI_FP_EXCEPTIONS",
	22:                    "TAG_ABI_FP_USER_EXCEPTIONS",
	23:                    "TAG_ABI_FP_NUMBER_MODEL",
	24:                    "TAG_ABI_ALIGN_NEEDED",
	25:                    "TAG_ABI_ALIGN_PRESERVED",
	26:                    "TAG_ABI_ENUM_SIZE",
	27:                    "TAG_ABI_HARDFP_USE",
	28:                    "TAG_ABI_VFP_ARGS",
	29:                    "TAG_ABI_WMMX_ARGS",
	30:                    "TAG_ABI_OPTIMIZATION_GOALS",
	31:                    "TAG_ABI_FP_OPTIMIZATION_GOALS",
	tagCompatibility:      "TAG_COMPATIBILITY",
	34:                    "TAG_CPU_UNALIGNED_ACCESS",
	36:                    "TAG_FP_HP_EXTENSION",
	38:                    "TAG_ABI_FP_16BIT_FORMAT",
	42:                    "TAG_MPEXTENSION_USE",
	44:                    "TAG_DIV_USE",
	46:                    "TAG_DSP_EXTENSION",
	48:                    "TAG_MVE_ARCH",
	50:                    "TAG_PAC_EXTENSION",
	52:                    "TAG_BTI_EXTENSION",
	64:                    "TAG_NODEFAULTS",
	tagAlsoCompatibleWith: "TAG_ALSO_COMPATIBLE_WITH",
	66:                    "TAG_T2EE_USE",
	tagConformance:        "TAG_CONFORMANCE",
	68:                    "TAG_VIRTUALIZATION_USE",
	70:                    "TAG_MPEXTENSION_USE_OLD",
	74:                    "TAG_BTI_USE",
	76:                    "TAG_PACRET_USE",
}

// Values of TAG_CPU_ARCH.
const (
	CPUArchPreV4   = 0x00
	CPUArchV4T     = 0x02
	CPUArchV5TE    = 0x04
	CPUArchV6      = 0x06
	CPUArchV6M     = 0x0B
	CPUArchV6SM    = 0x0C
	CPUArchV7      = 0x0A
	CPUArchV7EM    = 0x0D
	CPUArchV8MBase = 0x10
	CPUArchV8MMain = 0x11
)

// Values of TAG_CPU_ARCH_PROFILE.
const (
	ProfileApplication = 'A'
	ProfileRealtime    = 'R'
	ProfileMicro       = 'M'
)

// TagName returns the attribute name for an ARM tag number, or TAG_<n> for
// tags this table does not know.
func TagName(tag uint64) string {
	if name, ok := armTagNames[tag]; ok {
		return name
	}
	return fmt.Sprintf("TAG_%d", tag)
}

// tagIsString reports whether a tag's value is a NUL-terminated byte string.
// Tags from 32 upwards without an explicit encoding follow the generic rule:
// odd tags carry strings, even tags carry ULEB128 integers.
func tagIsString(tag uint64) bool {
	switch tag {
	case tagCPURawName, tagCPUName, tagConformance:
		return true
	case tagCompatibility, tagAlsoCompatibleWith:
		return false
	}
	if tag >= 32 {
		return tag%2 == 1
	}
	return false
}
