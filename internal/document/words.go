package document

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ones  = []string{"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine"}
	teens = []string{"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen", "Seventeen", "Eighteen", "Nineteen"}
	tens  = []string{"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety"}
)

// AmountInWords spells the rupee part of amount using Indian grouping (crore, lakh,
// thousand), e.g. 125000 -> "One Lakh Twenty Five Thousand Rupees Only". Paise are
// dropped.
func AmountInWords(amount decimal.Decimal) string {
	n := amount.Abs().IntPart()
	if n == 0 {
		return "Zero Rupees Only"
	}
	return indian(n) + " Rupees Only"
}

func indian(n int64) string {
	var parts []string
	if n >= 10000000 {
		parts = append(parts, indian(n/10000000), "Crore")
		n %= 10000000
	}
	if n >= 100000 {
		parts = append(parts, belowThousand(n/100000), "Lakh")
		n %= 100000
	}
	if n >= 1000 {
		parts = append(parts, belowThousand(n/1000), "Thousand")
		n %= 1000
	}
	if n > 0 {
		parts = append(parts, belowThousand(n))
	}
	return strings.Join(parts, " ")
}

func belowThousand(n int64) string {
	var parts []string
	if n >= 100 {
		parts = append(parts, ones[n/100], "Hundred")
		n %= 100
	}
	switch {
	case n >= 20:
		parts = append(parts, tens[n/10])
		if n%10 > 0 {
			parts = append(parts, ones[n%10])
		}
	case n >= 10:
		parts = append(parts, teens[n-10])
	case n > 0:
		parts = append(parts, ones[n])
	}
	return strings.Join(parts, " ")
}
