package regions

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/minwoo-kang/localstar-service/internal/models"
)

// Index holds the administrative region tree loaded at startup. It is
// read-only after Load and safe for concurrent use.
type Index struct {
	provinces []models.Province
	districts map[string]models.District
}

// Load parses the region dataset XML:
//
//	<regions>
//	  <province code="11" name="서울특별시">
//	    <district code="11680" name="강남구"/>
//	  </province>
//	</regions>
func Load(path string) (*Index, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("failed to read region data: %w", err)
	}
	return parse(doc)
}

// LoadBytes parses the region dataset from memory
func LoadBytes(data []byte) (*Index, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse region data: %w", err)
	}
	return parse(doc)
}

func parse(doc *etree.Document) (*Index, error) {
	root := doc.SelectElement("regions")
	if root == nil {
		return nil, fmt.Errorf("region data has no <regions> root element")
	}

	idx := &Index{districts: make(map[string]models.District)}
	for _, pe := range root.SelectElements("province") {
		province := models.Province{
			Code: pe.SelectAttrValue("code", ""),
			Name: pe.SelectAttrValue("name", ""),
		}
		if province.Code == "" || province.Name == "" {
			return nil, fmt.Errorf("province element missing code or name")
		}
		for _, de := range pe.SelectElements("district") {
			district := models.District{
				Code: de.SelectAttrValue("code", ""),
				Name: de.SelectAttrValue("name", ""),
			}
			if district.Code == "" || district.Name == "" {
				return nil, fmt.Errorf("district element missing code or name in province %s", province.Code)
			}
			if _, dup := idx.districts[district.Code]; dup {
				return nil, fmt.Errorf("duplicate district code %s", district.Code)
			}
			province.Districts = append(province.Districts, district)
			idx.districts[district.Code] = district
		}
		idx.provinces = append(idx.provinces, province)
	}

	if len(idx.provinces) == 0 {
		return nil, fmt.Errorf("region data contains no provinces")
	}
	return idx, nil
}

// Provinces returns the full region tree
func (i *Index) Provinces() []models.Province {
	return i.provinces
}

// District looks up a district by code
func (i *Index) District(code string) (models.District, bool) {
	d, ok := i.districts[code]
	return d, ok
}
