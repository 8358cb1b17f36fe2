package stage

import (
	"fmt"
	"strings"
	"time"
)

// Category groups exception types by the hundreds digit of their code.
type Category string

const (
	CategoryResource        Category = "resource"
	CategoryDataValidation  Category = "data_validation"
	CategoryRuntime         Category = "runtime"
	CategoryStage           Category = "stage"
	CategorySystem          Category = "system"
	CategoryConfig          Category = "config"
	CategoryExternalService Category = "external_service"
	CategoryRecovery        Category = "recovery"
	CategoryUnknown         Category = "unknown"
)

// ExceptionType classifies why an item was rejected or failed.
type ExceptionType int

const (
	ResourceNotFound    ExceptionType = 100
	ResourceUnavailable ExceptionType = 101
	ResourceExhausted   ExceptionType = 102
	ResourceTimeout     ExceptionType = 103

	InvalidDataFormat   ExceptionType = 200
	InvalidDataSize     ExceptionType = 201
	InvalidDataContent  ExceptionType = 202
	InvalidDataSequence ExceptionType = 203
	MissingRequiredData ExceptionType = 204

	ExecutionFailed   ExceptionType = 300
	ProcessingTimeout ExceptionType = 301
	InternalError     ExceptionType = 302
	DependencyFailed  ExceptionType = 303

	InvalidStateTransition ExceptionType = 400
	StageNotInitialized    ExceptionType = 401
	StageAlreadyRunning    ExceptionType = 402
	StageNotRunning        ExceptionType = 403
	StageExecuteFailed     ExceptionType = 404

	SystemOverload ExceptionType = 500
	MemoryError    ExceptionType = 501
	DiskError      ExceptionType = 502
	NetworkError   ExceptionType = 503

	ConfigNotFound ExceptionType = 600
	InvalidConfig  ExceptionType = 601
	ConfigConflict ExceptionType = 602

	ServiceUnavailable ExceptionType = 700
	ServiceTimeout     ExceptionType = 701
	ServiceError       ExceptionType = 702

	RecoveryFailed     ExceptionType = 800
	RetryExhausted     ExceptionType = 801
	UnrecoverableError ExceptionType = 802
)

var exceptionNames = map[ExceptionType]string{
	ResourceNotFound:       "RESOURCE_NOT_FOUND",
	ResourceUnavailable:    "RESOURCE_UNAVAILABLE",
	ResourceExhausted:      "RESOURCE_EXHAUSTED",
	ResourceTimeout:        "RESOURCE_TIMEOUT",
	InvalidDataFormat:      "INVALID_DATA_FORMAT",
	InvalidDataSize:        "INVALID_DATA_SIZE",
	InvalidDataContent:     "INVALID_DATA_CONTENT",
	InvalidDataSequence:    "INVALID_DATA_SEQUENCE",
	MissingRequiredData:    "MISSING_REQUIRED_DATA",
	ExecutionFailed:        "EXECUTION_FAILED",
	ProcessingTimeout:      "PROCESSING_TIMEOUT",
	InternalError:          "INTERNAL_ERROR",
	DependencyFailed:       "DEPENDENCY_FAILED",
	InvalidStateTransition: "INVALID_STATE_TRANSITION",
	StageNotInitialized:    "STAGE_NOT_INITIALIZED",
	StageAlreadyRunning:    "STAGE_ALREADY_RUNNING",
	StageNotRunning:        "STAGE_NOT_RUNNING",
	StageExecuteFailed:     "STAGE_EXECUTE_FAILED",
	SystemOverload:         "SYSTEM_OVERLOAD",
	MemoryError:            "MEMORY_ERROR",
	DiskError:              "DISK_ERROR",
	NetworkError:           "NETWORK_ERROR",
	ConfigNotFound:         "CONFIG_NOT_FOUND",
	InvalidConfig:          "INVALID_CONFIG",
	ConfigConflict:         "CONFIG_CONFLICT",
	ServiceUnavailable:     "SERVICE_UNAVAILABLE",
	ServiceTimeout:         "SERVICE_TIMEOUT",
	ServiceError:           "SERVICE_ERROR",
	RecoveryFailed:         "RECOVERY_FAILED",
	RetryExhausted:         "RETRY_EXHAUSTED",
	UnrecoverableError:     "UNRECOVERABLE_ERROR",
}

var categoriesByHundred = map[int]Category{
	1: CategoryResource,
	2: CategoryDataValidation,
	3: CategoryRuntime,
	4: CategoryStage,
	5: CategorySystem,
	6: CategoryConfig,
	7: CategoryExternalService,
	8: CategoryRecovery,
}

func (t ExceptionType) String() string {
	if name, ok := exceptionNames[t]; ok {
		return name
	}
	return fmt.Sprintf("EXCEPTION_%d", int(t))
}

// Code returns the numeric code of the exception type.
func (t ExceptionType) Code() int { return int(t) }

// Category returns the group the exception type belongs to.
func (t ExceptionType) Category() Category {
	if _, ok := exceptionNames[t]; !ok {
		return CategoryUnknown
	}
	return categoriesByHundred[int(t)/100]
}

// ParseExceptionType resolves a name such as "INVALID_DATA_SIZE" (case-insensitive).
func ParseExceptionType(value string) (ExceptionType, error) {
	wanted := strings.ToUpper(strings.TrimSpace(value))
	for t, name := range exceptionNames {
		if name == wanted {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown exception type %q", value)
}

// ExceptionTypes returns every defined exception type in code order.
func ExceptionTypes() []ExceptionType {
	out := make([]ExceptionType, 0, len(exceptionNames))
	for hundred := 1; hundred <= 8; hundred++ {
		for code := hundred * 100; code < hundred*100+10; code++ {
			if _, ok := exceptionNames[ExceptionType(code)]; ok {
				out = append(out, ExceptionType(code))
			}
		}
	}
	return out
}

// Exception pairs an exception type with the offending item. Item is nil when
// the failure happened after the item was consumed (generation failures) or
// when the item itself was unusable. Err keeps the underlying cause for
// logging only.
type Exception struct {
	Seq  uint64
	Type ExceptionType
	Item any
	Err  error
	At   time.Time
}

// Message returns the cause text, or the type name when no cause was kept.
func (e Exception) Message() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Type.String()
}

// RejectionError describes an item refused at admission.
type RejectionError struct {
	Stage  string
	Type   ExceptionType
	Reason string
}

func (e *RejectionError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: rejected input: %s", e.Stage, e.Type)
	}
	return fmt.Sprintf("%s: rejected input: %s: %s", e.Stage, e.Type, e.Reason)
}
