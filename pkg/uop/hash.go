package uop

// Hash computes the 64-bit entry hash used by UOP archives for a resource path.
// It is Bob Jenkins' lookup3 hashlittle2 with the client's seed of 0xDEADBEEF.
func Hash(s string) uint64 {
	var eax, ecx, edx, ebx, esi, edi uint32

	n := len(s)
	ebx = uint32(n) + 0xDEADBEEF
	edi = ebx
	esi = ebx

	i := 0
	for ; i+12 < n; i += 12 {
		edi += uint32(s[i+7])<<24 | uint32(s[i+6])<<16 | uint32(s[i+5])<<8 | uint32(s[i+4])
		esi += uint32(s[i+11])<<24 | uint32(s[i+10])<<16 | uint32(s[i+9])<<8 | uint32(s[i+8])
		edx = (uint32(s[i+3])<<24 | uint32(s[i+2])<<16 | uint32(s[i+1])<<8 | uint32(s[i])) - esi

		edx = (edx + ebx) ^ (esi >> 28) ^ (esi << 4)
		esi += edi
		edi = (edi - edx) ^ (edx >> 26) ^ (edx << 6)
		edx += esi
		esi = (esi - edi) ^ (edi >> 24) ^ (edi << 8)
		edi += edx
		ebx = (edx - esi) ^ (esi >> 16) ^ (esi << 16)
		esi += edi
		edi = (edi - ebx) ^ (ebx >> 13) ^ (ebx << 19)
		ebx += esi
		esi = (esi - edi) ^ (edi >> 28) ^ (edi << 4)
		edi += ebx
	}

	rest := n - i
	if rest <= 0 {
		return uint64(esi)<<32 | uint64(eax)
	}

	// Fall-through tail mix, highest byte first.
	if rest >= 12 {
		esi += uint32(s[i+11]) << 24
	}
	if rest >= 11 {
		esi += uint32(s[i+10]) << 16
	}
	if rest >= 10 {
		esi += uint32(s[i+9]) << 8
	}
	if rest >= 9 {
		esi += uint32(s[i+8])
	}
	if rest >= 8 {
		edi += uint32(s[i+7]) << 24
	}
	if rest >= 7 {
		edi += uint32(s[i+6]) << 16
	}
	if rest >= 6 {
		edi += uint32(s[i+5]) << 8
	}
	if rest >= 5 {
		edi += uint32(s[i+4])
	}
	if rest >= 4 {
		ebx += uint32(s[i+3]) << 24
	}
	if rest >= 3 {
		ebx += uint32(s[i+2]) << 16
	}
	if rest >= 2 {
		ebx += uint32(s[i+1]) << 8
	}
	ebx += uint32(s[i])

	esi = (esi ^ edi) - ((edi >> 18) ^ (edi << 14))
	ecx = (esi ^ ebx) - ((esi >> 21) ^ (esi << 11))
	edi = (edi ^ ecx) - ((ecx >> 7) ^ (ecx << 25))
	esi = (esi ^ edi) - ((edi >> 16) ^ (edi << 16))
	edx = (esi ^ ecx) - ((esi >> 28) ^ (esi << 4))
	edi = (edi ^ edx) - ((edx >> 18) ^ (edx << 14))
	eax = (esi ^ edi) - ((edi >> 8) ^ (edi << 24))

	return uint64(edi)<<32 | uint64(eax)
}
