package generator

import "github.com/civilmastersolution/cms-backend/pkg/models"

// ContactEmail is the channel users are directed to when the bot cannot
// answer.
const ContactEmail = "cms@civilmastersolution.com"

// profiles holds the per-language company facts embedded in every prompt.
var profiles = map[models.Language]models.CompanyProfile{
	models.LangEnglish: {
		Name:      "Civil Master Solution (CMS)",
		Specialty: "construction and engineering solutions",
		Services:  []string{"On-site supervision", "consultation"},
		Products:  []string{"Steel Fiber", "Micro Synthetic Fiber", "Micro Steel Fibers", "Armour Joints"},
		Contact:   ContactEmail,
	},
	models.LangThai: {
		Name:      "Civil Master Solution (CMS)",
		Specialty: "โซลูชันการก่อสร้างและวิศวกรรม",
		Services:  []string{"การดูแลหน้างาน", "การให้คำปรึกษา"},
		Products:  []string{"เส้นใยเหล็ก", "เส้นใยสังเคราะห์ขนาดเล็ก", "เส้นใยเหล็กขนาดเล็ก", "ข้อต่อ Armour"},
		Contact:   ContactEmail,
	},
}

// Profile returns the company profile for lang.
func Profile(lang models.Language) models.CompanyProfile {
	if p, ok := profiles[lang]; ok {
		return p
	}
	return profiles[models.LangEnglish]
}
