package pricing

import "strconv"

// Simplified fixed rate: 1000 UAH = 1 TON.
const uahPerTON = 1000.0

func ToTON(uah float64) float64 {
	return uah / uahPerTON
}

// FormatTON renders a TON amount with the 4 decimal places wallets expect.
func FormatTON(ton float64) string {
	return strconv.FormatFloat(ton, 'f', 4, 64)
}
