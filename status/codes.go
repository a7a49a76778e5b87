package status

// Environmental exceptions.
const (
	AeError            ErrorCode = 0x0001
	NoAcpiTables       ErrorCode = 0x0002
	NoNamespace        ErrorCode = 0x0003
	NoMemory           ErrorCode = 0x0004
	NotFound           ErrorCode = 0x0005
	NotExist           ErrorCode = 0x0006
	AlreadyExists      ErrorCode = 0x0007
	Type               ErrorCode = 0x0008
	NullObject         ErrorCode = 0x0009
	NullEntry          ErrorCode = 0x000A
	BufferOverflow     ErrorCode = 0x000B
	StackOverflow      ErrorCode = 0x000C
	StackUnderflow     ErrorCode = 0x000D
	NotImplemented     ErrorCode = 0x000E
	Support            ErrorCode = 0x000F
	Limit              ErrorCode = 0x0010
	Time               ErrorCode = 0x0011
	AcquireDeadlock    ErrorCode = 0x0012
	ReleaseDeadlock    ErrorCode = 0x0013
	NotAcquired        ErrorCode = 0x0014
	AlreadyAcquired    ErrorCode = 0x0015
	NoHardwareResponse ErrorCode = 0x0016
	NoGlobalLock       ErrorCode = 0x0017
	AbortMethod        ErrorCode = 0x0018
	SameHandler        ErrorCode = 0x0019
	NoHandler          ErrorCode = 0x001A
	OwnerIDLimit       ErrorCode = 0x001B
	NotConfigured      ErrorCode = 0x001C
	Access             ErrorCode = 0x001D
	IOError            ErrorCode = 0x001E
	NumericOverflow    ErrorCode = 0x001F
	HexOverflow        ErrorCode = 0x0020
	DecimalOverflow    ErrorCode = 0x0021
	OctalOverflow      ErrorCode = 0x0022
	EndOfTable         ErrorCode = 0x0023
)

// Programmer exceptions.
const (
	BadParameter       ErrorCode = 0x1001
	BadCharacter       ErrorCode = 0x1002
	BadPathname        ErrorCode = 0x1003
	BadData            ErrorCode = 0x1004
	BadHexConstant     ErrorCode = 0x1005
	BadOctalConstant   ErrorCode = 0x1006
	BadDecimalConstant ErrorCode = 0x1007
	MissingArguments   ErrorCode = 0x1008
	BadAddress         ErrorCode = 0x1009
)

// ACPI table exceptions.
const (
	BadSignature       ErrorCode = 0x2001
	BadHeader          ErrorCode = 0x2002
	BadChecksum        ErrorCode = 0x2003
	BadValue           ErrorCode = 0x2004
	InvalidTableLength ErrorCode = 0x2005
)

// AML interpreter exceptions.
const (
	AmlBadOpcode            ErrorCode = 0x3001
	AmlNoOperand            ErrorCode = 0x3002
	AmlOperandType          ErrorCode = 0x3003
	AmlOperandValue         ErrorCode = 0x3004
	AmlUninitializedLocal   ErrorCode = 0x3005
	AmlUninitializedArg     ErrorCode = 0x3006
	AmlUninitializedElement ErrorCode = 0x3007
	AmlNumericOverflow      ErrorCode = 0x3008
	AmlRegionLimit          ErrorCode = 0x3009
	AmlBufferLimit          ErrorCode = 0x300A
	AmlPackageLimit         ErrorCode = 0x300B
	AmlDivideByZero         ErrorCode = 0x300C
	AmlBadName              ErrorCode = 0x300D
	AmlNameNotFound         ErrorCode = 0x300E
	AmlInternal             ErrorCode = 0x300F
	AmlInvalidSpaceID       ErrorCode = 0x3010
	AmlStringLimit          ErrorCode = 0x3011
	AmlNoReturnValue        ErrorCode = 0x3012
	AmlMethodLimit          ErrorCode = 0x3013
	AmlNotOwner             ErrorCode = 0x3014
	AmlMutexOrder           ErrorCode = 0x3015
	AmlMutexNotAcquired     ErrorCode = 0x3016
	AmlInvalidResourceType  ErrorCode = 0x3017
	AmlInvalidIndex         ErrorCode = 0x3018
	AmlRegisterLimit        ErrorCode = 0x3019
	AmlNoWhile              ErrorCode = 0x301A
	AmlAlignment            ErrorCode = 0x301B
	AmlNoResourceEndTag     ErrorCode = 0x301C
	AmlBadResourceValue     ErrorCode = 0x301D
	AmlCircularReference    ErrorCode = 0x301E
	AmlBadResourceLength    ErrorCode = 0x301F
	AmlIllegalAddress       ErrorCode = 0x3020
	AmlLoopTimeout          ErrorCode = 0x3021
	AmlUninitializedNode    ErrorCode = 0x3022
	AmlTargetType           ErrorCode = 0x3023
	AmlProtocol             ErrorCode = 0x3024
	AmlBufferLength         ErrorCode = 0x3025
)

// Control exceptions. These steer the native interpreter and are not failures
// in the usual sense, but they travel through the same status channel.
const (
	CtrlReturnValue   ErrorCode = 0x4001
	CtrlPending       ErrorCode = 0x4002
	CtrlTerminate     ErrorCode = 0x4003
	CtrlTrue          ErrorCode = 0x4004
	CtrlFalse         ErrorCode = 0x4005
	CtrlDepth         ErrorCode = 0x4006
	CtrlEnd           ErrorCode = 0x4007
	CtrlTransfer      ErrorCode = 0x4008
	CtrlBreak         ErrorCode = 0x4009
	CtrlContinue      ErrorCode = 0x400A
	CtrlParseContinue ErrorCode = 0x400B
	CtrlParsePending  ErrorCode = 0x400C
)

var environmentalNames = [...]string{
	"AE_OK",
	"AE_ERROR",
	"AE_NO_ACPI_TABLES",
	"AE_NO_NAMESPACE",
	"AE_NO_MEMORY",
	"AE_NOT_FOUND",
	"AE_NOT_EXIST",
	"AE_ALREADY_EXISTS",
	"AE_TYPE",
	"AE_NULL_OBJECT",
	"AE_NULL_ENTRY",
	"AE_BUFFER_OVERFLOW",
	"AE_STACK_OVERFLOW",
	"AE_STACK_UNDERFLOW",
	"AE_NOT_IMPLEMENTED",
	"AE_SUPPORT",
	"AE_LIMIT",
	"AE_TIME",
	"AE_ACQUIRE_DEADLOCK",
	"AE_RELEASE_DEADLOCK",
	"AE_NOT_ACQUIRED",
	"AE_ALREADY_ACQUIRED",
	"AE_NO_HARDWARE_RESPONSE",
	"AE_NO_GLOBAL_LOCK",
	"AE_ABORT_METHOD",
	"AE_SAME_HANDLER",
	"AE_NO_HANDLER",
	"AE_OWNER_ID_LIMIT",
	"AE_NOT_CONFIGURED",
	"AE_ACCESS",
	"AE_IO_ERROR",
	"AE_NUMERIC_OVERFLOW",
	"AE_HEX_OVERFLOW",
	"AE_DECIMAL_OVERFLOW",
	"AE_OCTAL_OVERFLOW",
	"AE_END_OF_TABLE",
}

var programmerNames = [...]string{
	"",
	"AE_BAD_PARAMETER",
	"AE_BAD_CHARACTER",
	"AE_BAD_PATHNAME",
	"AE_BAD_DATA",
	"AE_BAD_HEX_CONSTANT",
	"AE_BAD_OCTAL_CONSTANT",
	"AE_BAD_DECIMAL_CONSTANT",
	"AE_MISSING_ARGUMENTS",
	"AE_BAD_ADDRESS",
}

var tableNames = [...]string{
	"",
	"AE_BAD_SIGNATURE",
	"AE_BAD_HEADER",
	"AE_BAD_CHECKSUM",
	"AE_BAD_VALUE",
	"AE_INVALID_TABLE_LENGTH",
}

var amlNames = [...]string{
	"",
	"AE_AML_BAD_OPCODE",
	"AE_AML_NO_OPERAND",
	"AE_AML_OPERAND_TYPE",
	"AE_AML_OPERAND_VALUE",
	"AE_AML_UNINITIALIZED_LOCAL",
	"AE_AML_UNINITIALIZED_ARG",
	"AE_AML_UNINITIALIZED_ELEMENT",
	"AE_AML_NUMERIC_OVERFLOW",
	"AE_AML_REGION_LIMIT",
	"AE_AML_BUFFER_LIMIT",
	"AE_AML_PACKAGE_LIMIT",
	"AE_AML_DIVIDE_BY_ZERO",
	"AE_AML_BAD_NAME",
	"AE_AML_NAME_NOT_FOUND",
	"AE_AML_INTERNAL",
	"AE_AML_INVALID_SPACE_ID",
	"AE_AML_STRING_LIMIT",
	"AE_AML_NO_RETURN_VALUE",
	"AE_AML_METHOD_LIMIT",
	"AE_AML_NOT_OWNER",
	"AE_AML_MUTEX_ORDER",
	"AE_AML_MUTEX_NOT_ACQUIRED",
	"AE_AML_INVALID_RESOURCE_TYPE",
	"AE_AML_INVALID_INDEX",
	"AE_AML_REGISTER_LIMIT",
	"AE_AML_NO_WHILE",
	"AE_AML_ALIGNMENT",
	"AE_AML_NO_RESOURCE_END_TAG",
	"AE_AML_BAD_RESOURCE_VALUE",
	"AE_AML_CIRCULAR_REFERENCE",
	"AE_AML_BAD_RESOURCE_LENGTH",
	"AE_AML_ILLEGAL_ADDRESS",
	"AE_AML_LOOP_TIMEOUT",
	"AE_AML_UNINITIALIZED_NODE",
	"AE_AML_TARGET_TYPE",
	"AE_AML_PROTOCOL",
	"AE_AML_BUFFER_LENGTH",
}

var controlNames = [...]string{
	"",
	"AE_CTRL_RETURN_VALUE",
	"AE_CTRL_PENDING",
	"AE_CTRL_TERMINATE",
	"AE_CTRL_TRUE",
	"AE_CTRL_FALSE",
	"AE_CTRL_DEPTH",
	"AE_CTRL_END",
	"AE_CTRL_TRANSFER",
	"AE_CTRL_BREAK",
	"AE_CTRL_CONTINUE",
	"AE_CTRL_PARSE_CONTINUE",
	"AE_CTRL_PARSE_PENDING",
}

// classNames indexes the per-class name tables by class nibble.
var classNames = [...][]string{
	ClassEnvironmental: environmentalNames[:],
	ClassProgrammer:    programmerNames[:],
	ClassAcpiTables:    tableNames[:],
	ClassAml:           amlNames[:],
	ClassControl:       controlNames[:],
}
