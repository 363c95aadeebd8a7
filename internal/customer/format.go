package customer

// FormatCNPJ renders a CNPJ as 00.000.000/0000-00. Values that do not
// have 14 digits are returned unchanged.
func FormatCNPJ(cnpj string) string {
	d := Digits(cnpj)
	if len(d) != 14 {
		return cnpj
	}
	return d[0:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:14]
}

// FormatPhone renders a phone number as (00) 0000-0000 or (00) 00000-0000
func FormatPhone(phone string) string {
	d := Digits(phone)
	switch len(d) {
	case 10:
		return "(" + d[0:2] + ") " + d[2:6] + "-" + d[6:10]
	case 11:
		return "(" + d[0:2] + ") " + d[2:7] + "-" + d[7:11]
	}
	return phone
}

// FormatCEP renders a CEP as 00000-000
func FormatCEP(cep string) string {
	d := Digits(cep)
	if len(d) != 8 {
		return cep
	}
	return d[0:5] + "-" + d[5:8]
}
