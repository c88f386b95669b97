package logic

// FormatNumber renders n right-aligned in a fixed field of width
// characters, the way the front panel shows every number.
//
// With decimals > 0 one position of the field is a decimal point and the
// value is truncated to field-1 significant positions, dropping the least
// significant digit: 3600 mV in a 5-wide field with 2 decimals reads
// " 3.60". Leading zeros become fill, except the digit before the decimal
// point and the last digit of the field. Values too large for the field
// saturate at all nines. An impossible field (width > 8 or too many
// decimals) renders as "".
func FormatNumber(n uint32, width, decimals int, fill byte) string {
	if width > 8 || width < 1 || (decimals > 0 && decimals > width-2) {
		return ""
	}

	pointAt := -1
	if decimals > 0 {
		pointAt = width - decimals - 1
	}

	divisor := uint32(1)
	for i := 1; i < width; i++ {
		divisor *= 10
	}
	if max := divisor*10 - 1; n > max {
		n = max
	}

	out := make([]byte, 0, width)
	seen := false
	for i := 0; i < width; i++ {
		if i == pointAt {
			out = append(out, '.')
			seen = true
			continue
		}

		d := n / divisor
		switch {
		case d != 0:
			out = append(out, byte(d)+'0')
			n -= d * divisor
			seen = true
		case seen, i+1 == pointAt, i == width-1:
			out = append(out, '0')
		default:
			out = append(out, fill)
		}
		divisor /= 10
	}
	return string(out)
}

// FormatTime renders elapsed time as "HH : MM : SS".
func FormatTime(h, m, s uint8) string {
	return FormatNumber(uint32(h), 2, 0, '0') + " : " +
		FormatNumber(uint32(m), 2, 0, '0') + " : " +
		FormatNumber(uint32(s), 2, 0, '0')
}

// FormatVolts renders millivolts as "VV.VV".
func FormatVolts(mv uint16) string {
	return FormatNumber(uint32(mv), 5, 2, ' ')
}

// FormatCapacity renders mAh in a 4-wide field.
func FormatCapacity(mah uint32) string {
	return FormatNumber(mah, 4, 0, ' ')
}
