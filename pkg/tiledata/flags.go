package tiledata

import "strings"

// Flag is the 64-bit attribute bitset of a land or item tile.
type Flag uint64

// Tile flags. Old client layouts only carry the low 32 bits.
const (
	Background   Flag = 1 << 0
	Weapon       Flag = 1 << 1
	Transparent  Flag = 1 << 2
	Translucent  Flag = 1 << 3
	Wall         Flag = 1 << 4
	Damaging     Flag = 1 << 5
	Impassable   Flag = 1 << 6
	Wet          Flag = 1 << 7
	Unknown1     Flag = 1 << 8
	Surface      Flag = 1 << 9
	Bridge       Flag = 1 << 10
	Generic      Flag = 1 << 11
	Window       Flag = 1 << 12
	NoShoot      Flag = 1 << 13
	ArticleA     Flag = 1 << 14
	ArticleAn    Flag = 1 << 15
	Internal     Flag = 1 << 16
	Foliage      Flag = 1 << 17
	PartialHue   Flag = 1 << 18
	NoHouse      Flag = 1 << 19
	Map          Flag = 1 << 20
	Container    Flag = 1 << 21
	Wearable     Flag = 1 << 22
	LightSource  Flag = 1 << 23
	Animation    Flag = 1 << 24
	NoDiagonal   Flag = 1 << 25
	Unknown2     Flag = 1 << 26
	Armor        Flag = 1 << 27
	Roof         Flag = 1 << 28
	Door         Flag = 1 << 29
	StairBack    Flag = 1 << 30
	StairRight   Flag = 1 << 31
	AlphaBlend   Flag = 1 << 32
	UseNewArt    Flag = 1 << 33
	ArtUsed      Flag = 1 << 34
	NoClip       Flag = 1 << 35
	NoShadow     Flag = 1 << 36
	PixelBleed   Flag = 1 << 37
	PlayAnimOnce Flag = 1 << 38
	MultiMovable Flag = 1 << 40
	NoDraw       Flag = 1 << 49
	HuedLight    Flag = 1 << 50
)

var flagNames = []struct {
	flag Flag
	name string
}{
	{Background, "Background"}, {Weapon, "Weapon"}, {Transparent, "Transparent"},
	{Translucent, "Translucent"}, {Wall, "Wall"}, {Damaging, "Damaging"},
	{Impassable, "Impassable"}, {Wet, "Wet"}, {Unknown1, "Unknown1"},
	{Surface, "Surface"}, {Bridge, "Bridge"}, {Generic, "Generic"},
	{Window, "Window"}, {NoShoot, "NoShoot"}, {ArticleA, "ArticleA"},
	{ArticleAn, "ArticleAn"}, {Internal, "Internal"}, {Foliage, "Foliage"},
	{PartialHue, "PartialHue"}, {NoHouse, "NoHouse"}, {Map, "Map"},
	{Container, "Container"}, {Wearable, "Wearable"}, {LightSource, "LightSource"},
	{Animation, "Animation"}, {NoDiagonal, "NoDiagonal"}, {Unknown2, "Unknown2"},
	{Armor, "Armor"}, {Roof, "Roof"}, {Door, "Door"},
	{StairBack, "StairBack"}, {StairRight, "StairRight"}, {AlphaBlend, "AlphaBlend"},
	{UseNewArt, "UseNewArt"}, {ArtUsed, "ArtUsed"}, {NoClip, "NoClip"},
	{NoShadow, "NoShadow"}, {PixelBleed, "PixelBleed"}, {PlayAnimOnce, "PlayAnimOnce"},
	{MultiMovable, "MultiMovable"}, {NoDraw, "NoDraw"}, {HuedLight, "HuedLight"},
}

// Has reports whether every bit of mask is set.
func (f Flag) Has(mask Flag) bool {
	return f&mask == mask
}

// Any reports whether at least one bit of mask is set.
func (f Flag) Any(mask Flag) bool {
	return f&mask != 0
}

// String returns the set flag names joined by '|', or "None".
func (f Flag) String() string {
	if f == 0 {
		return "None"
	}
	var names []string
	for _, n := range flagNames {
		if f&n.flag != 0 {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, "|")
}
