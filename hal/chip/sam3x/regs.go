package sam3x

// Register blocks.
const (
	BasePMC    uintptr = 0x400E0600
	BaseUART   uintptr = 0x400E0800
	BasePIOA   uintptr = 0x400E0E00
	BasePIOB   uintptr = 0x400E1000
	BasePIOC   uintptr = 0x400E1200
	BasePIOD   uintptr = 0x400E1400
	BaseUSART0 uintptr = 0x40098000
	BaseUSART1 uintptr = 0x4009C000
	BaseUSART2 uintptr = 0x400A0000
	BaseUSART3 uintptr = 0x400A4000
	BaseTWI0   uintptr = 0x4008C000
	BaseTWI1   uintptr = 0x40090000
	BaseADC    uintptr = 0x400C0000

	pioStride = BasePIOB - BasePIOA
)

// Peripheral identifiers. The NVIC line of each block equals its ID.
const (
	IDUART   uint8 = 8
	IDPIOA   uint8 = 11
	IDPIOB   uint8 = 12
	IDPIOC   uint8 = 13
	IDPIOD   uint8 = 14
	IDUSART0 uint8 = 17
	IDUSART1 uint8 = 18
	IDUSART2 uint8 = 19
	IDUSART3 uint8 = 20
	IDTWI0   uint8 = 22
	IDTWI1   uint8 = 23
	IDADC    uint8 = 37
)

// MasterClockHz is MCK after the boot PLL setup (SystemCoreClock).
const MasterClockHz = 84_000_000

// PMC
const (
	pmcPCER0 = 0x10
	pmcPCDR0 = 0x14
	pmcPCSR0 = 0x18
	pmcPCER1 = 0x100
	pmcPCDR1 = 0x104
	pmcPCSR1 = 0x108
)

// PIO
const (
	pioPER    = 0x00
	pioPDR    = 0x04
	pioPSR    = 0x08
	pioOER    = 0x10
	pioODR    = 0x14
	pioOSR    = 0x18
	pioIFER   = 0x20
	pioIFDR   = 0x24
	pioIFSR   = 0x28
	pioSODR   = 0x30
	pioCODR   = 0x34
	pioODSR   = 0x38
	pioPDSR   = 0x3C
	pioIER    = 0x40
	pioIDR    = 0x44
	pioIMR    = 0x48
	pioISR    = 0x4C
	pioMDER   = 0x50
	pioMDDR   = 0x54
	pioMDSR   = 0x58
	pioPUDR   = 0x60
	pioPUER   = 0x64
	pioPUSR   = 0x68
	pioABSR   = 0x70
	pioSCIFSR = 0x80
	pioDIFSR  = 0x84
	pioIFDGSR = 0x88
	pioSCDR   = 0x8C
	pioOWER   = 0xA0
	pioOWDR   = 0xA4
	pioOWSR   = 0xA8
)

// USART (and the UART subset at the same offsets)
const (
	usCR   = 0x00
	usMR   = 0x04
	usIER  = 0x08
	usIDR  = 0x0C
	usIMR  = 0x10
	usCSR  = 0x14
	usRHR  = 0x18
	usTHR  = 0x1C
	usBRGR = 0x20

	usCRRSTRX  = 1 << 2
	usCRRSTTX  = 1 << 3
	usCRRXEN   = 1 << 4
	usCRRXDIS  = 1 << 5
	usCRTXEN   = 1 << 6
	usCRTXDIS  = 1 << 7
	usCRRSTSTA = 1 << 8

	usCSRRXRDY   = 1 << 0
	usCSRTXRDY   = 1 << 1
	usCSRTXEMPTY = 1 << 9

	usMRModeNormal = 0 << 0
	usMRCHRL8      = 3 << 6
	usMRCHRL7      = 2 << 6
	usMRPARNone    = 4 << 9
	usMRPAREven    = 0 << 9
	usMRPAROdd     = 1 << 9
	usMRNBSTOP1    = 0 << 12
	usMRNBSTOP2    = 2 << 12

	usBRGRCDMask = 0xFFFF
)

// ADC
const (
	adcCR   = 0x00
	adcMR   = 0x04
	adcCHER = 0x10
	adcCHDR = 0x14
	adcCHSR = 0x18
	adcLCDR = 0x20
	adcIER  = 0x24
	adcIDR  = 0x28
	adcIMR  = 0x2C
	adcISR  = 0x30
	adcOVER = 0x3C
	adcEMR  = 0x40
	adcCGR  = 0x48
	adcCOR  = 0x4C
	adcCDR0 = 0x50

	adcCRSWRST = 1 << 0
	adcCRSTART = 1 << 1

	adcISRDRDY  = 1 << 24
	adcISRGOVRE = 1 << 25
	adcISRCOMPE = 1 << 26

	adcMRPrescalShift  = 8
	adcMRStartupShift  = 16
	adcMRSettlingShift = 20
	adcMRTrackShift    = 24
	adcMRTransferShift = 28

	adcCORDiffShift = 16
)

// TWI
const (
	twiCR   = 0x00
	twiMMR  = 0x04
	twiIADR = 0x0C
	twiCWGR = 0x10
	twiSR   = 0x20
	twiRHR  = 0x30
	twiTHR  = 0x34

	twiCRSTART = 1 << 0
	twiCRSTOP  = 1 << 1
	twiCRMSEN  = 1 << 2
	twiCRMSDIS = 1 << 3
	twiCRSVDIS = 1 << 5
	twiCRSWRST = 1 << 7

	twiMMRIADRSZShift = 8
	twiMMRMREAD       = 1 << 12
	twiMMRDADRShift   = 16

	twiSRTXCOMP = 1 << 0
	twiSRRXRDY  = 1 << 1
	twiSRTXRDY  = 1 << 2
	twiSRNACK   = 1 << 8
)
