package archive

// didRange is one half-open [Low, High) DID range mapping to an ordered
// list of archive names to try. This table is data, not logic — the
// ranges must be preserved exactly.
type didRange struct {
	low, high uint32
	archives  []string
}

// ranges is the fixed DID routing table (§4.D).
var ranges = []didRange{
	{16777216, 33554432, []string{"general"}},
	{67108864, 83886080, []string{"general"}},
	{100663296, 117440512, []string{"mesh"}},
	{117440512, 134217728, []string{"gamelogic"}},
	{167772160, 184549376, []string{"sound", "sound_aux_1"}},
	{234881028, 240123904, []string{"general"}},
	{251658240, 268435456, []string{"general"}},
	{402653184, 419430400, []string{"general"}},
	{520093696, 536870912, []string{"general"}},
	{536870912, 553648128, []string{"general"}},
	{570425344, 587202560, []string{"general", "local_English"}},
	{587202560, 603979776, []string{"general"}},
	{620756992, 654311424, []string{"local_English"}},
	{671088640, 687865856, []string{"general"}},
	{721420288, 738197504, []string{"general"}},
	{805306368, 822083584, []string{"general"}},
	{822083584, 838860800, []string{"general"}},
	{872415232, 872415233, []string{"gamelogic"}},
	{1073741824, 1090519040, []string{"general"}},
	{1090519040, 1107296256, []string{"highres", "highres_aux_1", "highres_aux_2", "surface", "surface_aux_1", "local_English"}},
	{1191182336, 1207959552, []string{"gamelogic"}},
	{1442840576, 1459617792, []string{"gamelogic"}},
	{1879048192, 2013265920, []string{"gamelogic"}},
	{2013265920, 2147483648, []string{"gamelogic", "local_English"}},
	{2147549184, 2147614720, []string{"cell_1"}},
	{2147614720, 2147680256, []string{"cell_2"}},
	{2147680256, 2147745792, []string{"cell_3"}},
	{2147745792, 2147811328, []string{"cell_4"}},
	{2148401152, 2148466688, []string{"cell_14"}},
	{2149646336, 2149711872, []string{"cell_1"}},
	{2149711872, 2149777408, []string{"cell_2"}},
	{2149777408, 2149842944, []string{"cell_3"}},
	{2149842944, 2149908480, []string{"cell_4"}},
	{2150498304, 2150563840, []string{"cell_14"}},
	{2151743488, 2151809024, []string{"cell_1"}},
	{2151809024, 2151874560, []string{"cell_2"}},
	{2151874560, 2151940096, []string{"cell_3"}},
	{2151940096, 2152005632, []string{"cell_4"}},
	{2152595456, 2152660992, []string{"cell_14"}},
}

// ArchivesFor returns the ordered list of archive names to try for did,
// or nil if no range matches.
func ArchivesFor(did uint32) []string {
	for _, r := range ranges {
		if did >= r.low && did < r.high {
			return r.archives
		}
	}
	return nil
}
