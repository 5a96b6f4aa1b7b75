package codebook

// Default column groups of the Findex microdata extract.
var defaultGroups = []Group{
	{Name: "identifier", Columns: []string{"economy", "regionwb"}},
	{Name: "demographic", Columns: []string{"female", "age", "educ", "urbanicity", "inc_q", "emp_in"}},
	{Name: "financial_inclusion", Columns: []string{
		"account", "account_fin", "account_mob", "dig_account", "anydigpayment",
	}},
	{Name: "entrepreneurship", Columns: []string{"fin17a", "fin17b", "fin18", "fin20", "fin21", "fin22e"}},
	{Name: "barrier", Columns: []string{
		"fin11a", "fin11b", "fin11c", "fin11d", "fin11f",
		"fin14a", "fin14b", "fin14c", "fin14d", "fin14e",
	}},
	{Name: "digital", Columns: []string{"con1", "con12", "con25", "con30c", "con30g"}},
	{Name: "payment_behavior", Columns: []string{
		"borrowed", "saved", "receive_wages",
		"receive_transfers", "receive_pensions",
		"receive_agriculture", "merchantpay_dig",
		"pay_utilities", "domestic_remittances",
	}},
}

var defaultYesNo = []string{
	"account", "account_fin", "account_mob", "dig_account",
	"anydigpayment", "borrowed", "saved", "merchantpay_dig",
}

// receiptCodes is the shared 1..5 layout of the receive_* and pay_* items;
// only the "none" label differs per column.
func receiptCodes(first, none string) []Code {
	return []Code{
		{1, first},
		{2, "Cash Only"},
		{3, "Other Method"},
		{4, none},
		{5, "Don't Know/Refused"},
	}
}

// Default returns the compiled-in codebook.
func Default() *Codebook {
	yesNo := make([]RecodeSpec, len(defaultYesNo))
	for i, col := range defaultYesNo {
		yesNo[i] = YesNo(col)
	}

	cb, err := New(Parts{
		Groups:    defaultGroups,
		Sentinels: DefaultSentinels(),
		Gender: MustRecode("female", "gender",
			Code{1, "Female"},
			Code{2, "Male"},
		),
		Employment: MustRecode("emp_in", "employment_status",
			Code{1, "In Labor Force"},
			Code{2, "Not in Labor Force"},
			Code{98, "Don't Know"},
			Code{99, "Refused"},
		),
		Urbanicity: MustRecode("urbanicity", "urban_rural",
			Code{1, "Urban"},
			Code{2, "Rural"},
		),
		Income: MustRecode("inc_q", "income_quintile",
			Code{1, "Poorest 20%"},
			Code{2, "Second 20%"},
			Code{3, "Middle 20%"},
			Code{4, "Fourth 20%"},
			Code{5, "Richest 20%"},
		),
		YesNo: yesNo,
		Multi: []RecodeSpec{
			MustRecode("receive_wages", "", receiptCodes("Into Account", "No Wage")...),
			MustRecode("receive_transfers", "", receiptCodes("Into Account", "No Transfer")...),
			MustRecode("receive_pensions", "", receiptCodes("Into Account", "No Pension")...),
			MustRecode("receive_agriculture", "", receiptCodes("Into Account", "No Agriculture Income")...),
			MustRecode("pay_utilities", "", receiptCodes("From Account", "No Utility Payment")...),
			MustRecode("domestic_remittances", "",
				Code{1, "Via Account"},
				Code{2, "Other Method"},
				Code{3, "No Remittances"},
				Code{4, "Don't Know/Refused"},
			),
		},
	})
	if err != nil {
		panic("codebook: invalid defaults: " + err.Error())
	}
	return cb
}
