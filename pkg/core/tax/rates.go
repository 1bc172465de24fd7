package tax

import "math"

// =============================================================================
// RATE TABLES
// 2024 federal and provincial parameters. Tables are unexported fixed-size
// arrays indexed by Province.index(); accessors hand out copies so callers
// can never mutate them.
// =============================================================================

// TaxBracket is one band of a progressive schedule. A nil To marks the
// open-ended top bracket.
type TaxBracket struct {
	From float64  `json:"from"`
	To   *float64 `json:"to"`
	Rate float64  `json:"rate"`
}

func upTo(v float64) *float64 { return &v }

// CorporateRates are the rates one jurisdiction levies on active business income.
type CorporateRates struct {
	SmallBusinessRate float64 `json:"small_business_rate"`
	GeneralRate       float64 `json:"general_rate"`
	SBDLimit          float64 `json:"sbd_limit"`
}

// PersonalSchedule is one jurisdiction's personal income tax schedule.
type PersonalSchedule struct {
	Brackets            []TaxBracket `json:"brackets"`
	BasicPersonalAmount float64      `json:"basic_personal_amount"`
}

// SalesTaxRegime classifies how a province levies consumption tax.
type SalesTaxRegime string

const (
	RegimeGSTOnly   SalesTaxRegime = "GST"
	RegimeHST       SalesTaxRegime = "HST"
	RegimeGSTAndPST SalesTaxRegime = "GST+PST"
	RegimeGSTAndQST SalesTaxRegime = "GST+QST"
)

// SalesTaxRates holds the component rates of a province's regime.
type SalesTaxRates struct {
	Regime SalesTaxRegime `json:"regime"`
	GST    float64        `json:"gst"`
	HST    float64        `json:"hst"`
	PST    float64        `json:"pst"`
	QST    float64        `json:"qst"`
}

// Total is the combined rate charged on a taxable supply.
func (s SalesTaxRates) Total() float64 {
	return s.GST + s.HST + s.PST + s.QST
}

// DividendCreditRates are provincial dividend tax credit rates, expressed
// as a fraction of the grossed-up dividend.
type DividendCreditRates struct {
	Eligible    float64 `json:"eligible"`
	NonEligible float64 `json:"non_eligible"`
}

// Federal corporate parameters.
const (
	FederalSmallBusinessRate = 0.09
	FederalGeneralRate       = 0.15
	FederalSBDLimit          = 500_000.0
)

// SBD grind thresholds.
const (
	TaxableCapitalGrindStart = 10_000_000.0
	TaxableCapitalGrindEnd   = 15_000_000.0
	AAIIGrindStart           = 50_000.0
	AAIIGrindEnd             = 150_000.0
	AAIIGrindFactor          = 5.0
)

// Dividend mechanics.
const (
	EligibleGrossUp             = 0.38
	NonEligibleGrossUp          = 0.15
	FederalEligibleDTCRate      = 0.150198
	FederalNonEligibleDTCRate   = 0.090301
	RDTOHRefundRate             = 0.3833
	CapitalGainsInclusionRate   = 0.50
	ProposedInclusionRate       = 2.0 / 3.0
	ProposedIndividualThreshold = 250_000.0
)

// Payroll thresholds (2024).
const (
	CPPRate              = 0.0595
	CPPBasicExemption    = 3_500.0
	YMPE                 = 68_500.0
	YAMPE                = 73_200.0
	CPP2Rate             = 0.04
	EIEmployeeRate       = 0.0166
	EIMaxInsurable       = 63_200.0
	EIEmployerMultiplier = 1.4
	RRSPContributionRate = 0.18
	RRSPDollarLimit      = 31_560.0
	TFSAAnnualLimit      = 7_000.0
)

var federalPersonal = PersonalSchedule{
	Brackets: []TaxBracket{
		{From: 0, To: upTo(55_867), Rate: 0.15},
		{From: 55_867, To: upTo(111_733), Rate: 0.205},
		{From: 111_733, To: upTo(173_205), Rate: 0.26},
		{From: 173_205, To: upTo(246_752), Rate: 0.29},
		{From: 246_752, To: nil, Rate: 0.33},
	},
	BasicPersonalAmount: 15_705,
}

// Order: ON QC BC AB SK MB NB NS PE NL YT NT NU.
var provincialCorporate = [provinceCount]CorporateRates{
	{SmallBusinessRate: 0.032, GeneralRate: 0.115, SBDLimit: 500_000},
	{SmallBusinessRate: 0.032, GeneralRate: 0.115, SBDLimit: 500_000},
	{SmallBusinessRate: 0.02, GeneralRate: 0.12, SBDLimit: 500_000},
	{SmallBusinessRate: 0.02, GeneralRate: 0.08, SBDLimit: 500_000},
	{SmallBusinessRate: 0.01, GeneralRate: 0.12, SBDLimit: 600_000},
	{SmallBusinessRate: 0.0, GeneralRate: 0.12, SBDLimit: 500_000},
	{SmallBusinessRate: 0.025, GeneralRate: 0.14, SBDLimit: 500_000},
	{SmallBusinessRate: 0.025, GeneralRate: 0.14, SBDLimit: 500_000},
	{SmallBusinessRate: 0.01, GeneralRate: 0.16, SBDLimit: 500_000},
	{SmallBusinessRate: 0.025, GeneralRate: 0.15, SBDLimit: 500_000},
	{SmallBusinessRate: 0.0, GeneralRate: 0.12, SBDLimit: 500_000},
	{SmallBusinessRate: 0.02, GeneralRate: 0.115, SBDLimit: 500_000},
	{SmallBusinessRate: 0.03, GeneralRate: 0.12, SBDLimit: 500_000},
}

var provincialPersonal = [provinceCount]PersonalSchedule{
	{ // ON
		Brackets: []TaxBracket{
			{From: 0, To: upTo(51_446), Rate: 0.0505},
			{From: 51_446, To: upTo(102_894), Rate: 0.0915},
			{From: 102_894, To: upTo(150_000), Rate: 0.1116},
			{From: 150_000, To: upTo(220_000), Rate: 0.1216},
			{From: 220_000, To: nil, Rate: 0.1316},
		},
		BasicPersonalAmount: 12_399,
	},
	{ // QC
		Brackets: []TaxBracket{
			{From: 0, To: upTo(51_780), Rate: 0.14},
			{From: 51_780, To: upTo(103_545), Rate: 0.19},
			{From: 103_545, To: upTo(126_000), Rate: 0.24},
			{From: 126_000, To: nil, Rate: 0.2575},
		},
		BasicPersonalAmount: 18_056,
	},
	{ // BC
		Brackets: []TaxBracket{
			{From: 0, To: upTo(47_937), Rate: 0.0506},
			{From: 47_937, To: upTo(95_875), Rate: 0.077},
			{From: 95_875, To: upTo(110_076), Rate: 0.105},
			{From: 110_076, To: upTo(133_664), Rate: 0.1229},
			{From: 133_664, To: upTo(181_232), Rate: 0.147},
			{From: 181_232, To: upTo(252_752), Rate: 0.168},
			{From: 252_752, To: nil, Rate: 0.205},
		},
		BasicPersonalAmount: 12_580,
	},
	{ // AB
		Brackets: []TaxBracket{
			{From: 0, To: upTo(148_269), Rate: 0.10},
			{From: 148_269, To: upTo(177_922), Rate: 0.12},
			{From: 177_922, To: upTo(237_230), Rate: 0.13},
			{From: 237_230, To: upTo(355_845), Rate: 0.14},
			{From: 355_845, To: nil, Rate: 0.15},
		},
		BasicPersonalAmount: 21_885,
	},
	{ // SK
		Brackets: []TaxBracket{
			{From: 0, To: upTo(52_057), Rate: 0.105},
			{From: 52_057, To: upTo(148_734), Rate: 0.125},
			{From: 148_734, To: nil, Rate: 0.145},
		},
		BasicPersonalAmount: 18_491,
	},
	{ // MB
		Brackets: []TaxBracket{
			{From: 0, To: upTo(47_000), Rate: 0.108},
			{From: 47_000, To: upTo(100_000), Rate: 0.1275},
			{From: 100_000, To: nil, Rate: 0.174},
		},
		BasicPersonalAmount: 15_780,
	},
	{ // NB
		Brackets: []TaxBracket{
			{From: 0, To: upTo(49_958), Rate: 0.094},
			{From: 49_958, To: upTo(99_916), Rate: 0.14},
			{From: 99_916, To: upTo(185_064), Rate: 0.16},
			{From: 185_064, To: nil, Rate: 0.195},
		},
		BasicPersonalAmount: 13_044,
	},
	{ // NS
		Brackets: []TaxBracket{
			{From: 0, To: upTo(29_590), Rate: 0.0879},
			{From: 29_590, To: upTo(59_180), Rate: 0.1495},
			{From: 59_180, To: upTo(93_000), Rate: 0.1667},
			{From: 93_000, To: upTo(150_000), Rate: 0.175},
			{From: 150_000, To: nil, Rate: 0.21},
		},
		BasicPersonalAmount: 8_744,
	},
	{ // PE
		Brackets: []TaxBracket{
			{From: 0, To: upTo(32_656), Rate: 0.0965},
			{From: 32_656, To: upTo(64_313), Rate: 0.1363},
			{From: 64_313, To: upTo(105_000), Rate: 0.1665},
			{From: 105_000, To: upTo(140_000), Rate: 0.18},
			{From: 140_000, To: nil, Rate: 0.1875},
		},
		BasicPersonalAmount: 13_500,
	},
	{ // NL
		Brackets: []TaxBracket{
			{From: 0, To: upTo(43_198), Rate: 0.087},
			{From: 43_198, To: upTo(86_395), Rate: 0.145},
			{From: 86_395, To: upTo(154_244), Rate: 0.158},
			{From: 154_244, To: upTo(215_943), Rate: 0.178},
			{From: 215_943, To: upTo(275_870), Rate: 0.198},
			{From: 275_870, To: upTo(551_739), Rate: 0.208},
			{From: 551_739, To: upTo(1_103_478), Rate: 0.213},
			{From: 1_103_478, To: nil, Rate: 0.218},
		},
		BasicPersonalAmount: 10_818,
	},
	{ // YT
		Brackets: []TaxBracket{
			{From: 0, To: upTo(55_867), Rate: 0.064},
			{From: 55_867, To: upTo(111_733), Rate: 0.09},
			{From: 111_733, To: upTo(173_205), Rate: 0.109},
			{From: 173_205, To: upTo(500_000), Rate: 0.128},
			{From: 500_000, To: nil, Rate: 0.15},
		},
		BasicPersonalAmount: 15_705,
	},
	{ // NT
		Brackets: []TaxBracket{
			{From: 0, To: upTo(50_597), Rate: 0.059},
			{From: 50_597, To: upTo(101_198), Rate: 0.086},
			{From: 101_198, To: upTo(164_525), Rate: 0.122},
			{From: 164_525, To: nil, Rate: 0.1405},
		},
		BasicPersonalAmount: 17_373,
	},
	{ // NU
		Brackets: []TaxBracket{
			{From: 0, To: upTo(53_268), Rate: 0.04},
			{From: 53_268, To: upTo(106_537), Rate: 0.07},
			{From: 106_537, To: upTo(173_205), Rate: 0.09},
			{From: 173_205, To: nil, Rate: 0.115},
		},
		BasicPersonalAmount: 18_767,
	},
}

var salesTax = [provinceCount]SalesTaxRates{
	{Regime: RegimeHST, HST: 0.13},
	{Regime: RegimeGSTAndQST, GST: 0.05, QST: 0.09975},
	{Regime: RegimeGSTAndPST, GST: 0.05, PST: 0.07},
	{Regime: RegimeGSTOnly, GST: 0.05},
	{Regime: RegimeGSTAndPST, GST: 0.05, PST: 0.06},
	{Regime: RegimeGSTAndPST, GST: 0.05, PST: 0.07},
	{Regime: RegimeHST, HST: 0.15},
	{Regime: RegimeHST, HST: 0.15},
	{Regime: RegimeHST, HST: 0.15},
	{Regime: RegimeHST, HST: 0.15},
	{Regime: RegimeGSTOnly, GST: 0.05},
	{Regime: RegimeGSTOnly, GST: 0.05},
	{Regime: RegimeGSTOnly, GST: 0.05},
}

var provincialDividendCredits = [provinceCount]DividendCreditRates{
	{Eligible: 0.10, NonEligible: 0.029863},
	{Eligible: 0.117, NonEligible: 0.0342},
	{Eligible: 0.12, NonEligible: 0.0196},
	{Eligible: 0.0812, NonEligible: 0.0218},
	{Eligible: 0.11, NonEligible: 0.02938},
	{Eligible: 0.08, NonEligible: 0.007835},
	{Eligible: 0.14, NonEligible: 0.0275},
	{Eligible: 0.0885, NonEligible: 0.0299},
	{Eligible: 0.105, NonEligible: 0.013},
	{Eligible: 0.063, NonEligible: 0.032},
	{Eligible: 0.1202, NonEligible: 0.0067},
	{Eligible: 0.115, NonEligible: 0.06},
	{Eligible: 0.0551, NonEligible: 0.0261},
}

// ProvincialCorporateRates returns the provincial corporate rates for p.
func ProvincialCorporateRates(p Province) (CorporateRates, error) {
	i, err := mustIndex(p)
	if err != nil {
		return CorporateRates{}, err
	}
	return provincialCorporate[i], nil
}

// FederalPersonalSchedule returns a copy of the federal personal schedule.
func FederalPersonalSchedule() PersonalSchedule {
	return federalPersonal.clone()
}

// ProvincialPersonalSchedule returns a copy of p's personal schedule.
func ProvincialPersonalSchedule(p Province) (PersonalSchedule, error) {
	i, err := mustIndex(p)
	if err != nil {
		return PersonalSchedule{}, err
	}
	return provincialPersonal[i].clone(), nil
}

// ProvincialSalesTax returns p's sales tax regime and rates.
func ProvincialSalesTax(p Province) (SalesTaxRates, error) {
	i, err := mustIndex(p)
	if err != nil {
		return SalesTaxRates{}, err
	}
	return salesTax[i], nil
}

// ProvincialDividendCredits returns p's dividend tax credit rates.
func ProvincialDividendCredits(p Province) (DividendCreditRates, error) {
	i, err := mustIndex(p)
	if err != nil {
		return DividendCreditRates{}, err
	}
	return provincialDividendCredits[i], nil
}

func (s PersonalSchedule) clone() PersonalSchedule {
	out := PersonalSchedule{
		Brackets:            make([]TaxBracket, len(s.Brackets)),
		BasicPersonalAmount: s.BasicPersonalAmount,
	}
	for i, b := range s.Brackets {
		out.Brackets[i] = TaxBracket{From: b.From, Rate: b.Rate}
		if b.To != nil {
			out.Brackets[i].To = upTo(*b.To)
		}
	}
	return out
}

// lowestRate is the first bracket's rate, used to value the basic personal amount.
func (s PersonalSchedule) lowestRate() float64 {
	if len(s.Brackets) == 0 {
		return 0
	}
	return s.Brackets[0].Rate
}

// =============================================================================
// ROUNDING
// =============================================================================

// Round2 rounds to cents, half away from zero. Only result assembly calls it.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// roundRate keeps rates readable without hiding meaningful precision.
func roundRate(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
