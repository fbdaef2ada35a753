package classifier

var ImageGenerationKeywords = []string{
	"generate an image",
	"create an image",
	"draw",
	"make a picture",
	"create a picture",
	"generate a picture",
	"make an image",
	"create art",
	"generate art",
	"make art",
	"draw a picture",
	"illustrate",
	"visualize",
	"show me",
	"picture of",
	"image of",
	"photo of",
	"photograph of",
	"render",
	"design",
}
