package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Optimizer passes
	OptInfo           Code = 1000
	OptUnsupportedUse Code = 1001
	OptTypeResolution Code = 1002
	OptDefUse         Code = 1003
	OptDebugInfo      Code = 1004
	OptIDOverflow     Code = 1005
	OptPassFailed     Code = 1006

	// Id canonicalisation
	RemapInfo        Code = 2000
	RemapMalformedID Code = 2001
	RemapCollision   Code = 2002
	RemapUnknownType Code = 2003

	// Configuration
	CfgInvalid        Code = 3001
	CfgUnknownPass    Code = 3002
	CfgVersionRejects Code = 3003

	// IO
	IOLoadFileError Code = 4001
	IODecodeError   Code = 4002
	IOEncodeError   Code = 4003
	IOWriteError    Code = 4004
	IOCacheError    Code = 4005

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:       "Unknown error",
		OptInfo:           "Optimizer information",
		OptUnsupportedUse: "Variable has a use the pass cannot rewrite",
		OptTypeResolution: "Pointer type could not be found or created",
		OptDefUse:         "Def-use index is inconsistent",
		OptDebugInfo:      "Debug information could not be updated",
		OptIDOverflow:     "Id bound exhausted",
		OptPassFailed:     "Pass failed",
		RemapInfo:         "Id remapping information",
		RemapMalformedID:  "Name binding targets an invalid id",
		RemapCollision:    "Two ids claim the same canonical id",
		RemapUnknownType:  "Type hashing met an unexpected instruction",
		CfgInvalid:        "Invalid configuration",
		CfgUnknownPass:    "Unknown pass name",
		CfgVersionRejects: "Module version outside the accepted range",
		IOLoadFileError:   "I/O error while reading input",
		IODecodeError:     "Input is not a valid SPIR-V module",
		IOEncodeError:     "Module could not be encoded",
		IOWriteError:      "I/O error while writing output",
		IOCacheError:      "Result cache error",
		ObsInfo:           "Observability information",
		ObsTimings:        "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("OPT%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("RMP%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("CFG%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
