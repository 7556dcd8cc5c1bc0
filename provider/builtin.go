package provider

import "github.com/tilawa-cli/tilawa/track"

// Mirrors are tried for every reciter after its own templates.
var Mirrors = []track.Template{
	{Pattern: "https://download.quranicaudio.com/quran/{family}/{id3}.mp3", Provider: "quranicaudio.com"},
	{Pattern: "https://mirrors.quranicaudio.com/muqri/{family}/{id3}.mp3", Provider: "mirrors.quranicaudio.com"},
}

func mp3quran(server, dir string) track.Template {
	return track.Template{
		Pattern:  "https://" + server + ".mp3quran.net/" + dir + "/{id3}.mp3",
		Provider: "mp3quran.net",
	}
}

// Builtins returns the reciters shipped with tilawa.
func Builtins() []*Provider {
	return []*Provider{
		{
			ID:        "alafasy",
			Name:      "Mishary Rashid Alafasy",
			Family:    "mishaari_raashid_al_3afaasee",
			Templates: []track.Template{mp3quran("server8", "afs")},
		},
		{
			ID:        "abdulbasit",
			Name:      "Abdul Basit Abdul Samad",
			Family:    "abdul_basit_murattal",
			Templates: []track.Template{mp3quran("server7", "basit")},
		},
		{
			ID:        "sudais",
			Name:      "Abdul Rahman Al-Sudais",
			Family:    "abdurrahmaan_as-sudays",
			Templates: []track.Template{mp3quran("server11", "sds")},
		},
		{
			ID:        "husary",
			Name:      "Mahmoud Khalil Al-Husary",
			Family:    "mahmood_khaleel_al-husaree",
			Templates: []track.Template{mp3quran("server13", "husr")},
		},
		{
			ID:        "minshawi",
			Name:      "Mohamed Siddiq Al-Minshawi",
			Family:    "muhammad_siddeeq_al-minshaawee",
			Templates: []track.Template{mp3quran("server10", "minsh")},
		},
		{
			ID:        "shuraim",
			Name:      "Saud Al-Shuraim",
			Family:    "sa3ood_al-shuraym",
			Templates: []track.Template{mp3quran("server7", "shur")},
		},
		{
			ID:        "ghamdi",
			Name:      "Saad Al-Ghamdi",
			Family:    "sa3d_al-ghaamidi/complete",
			Templates: []track.Template{mp3quran("server7", "s_gmd")},
		},
	}
}
