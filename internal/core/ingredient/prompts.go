package ingredient

import (
	"fmt"
	"strings"
)

const responseRules = `응답 규칙:
1. 절대로 마크다운, 코드블록, 설명 텍스트 포함 금지
2. 오직 JSON 객체만 응답
3. 모든 문자열은 큰따옴표 사용
4. 숫자는 따옴표 없이 작성`

// visionPrompt 先判斷圖片是收據還是食材，再依類型回傳不同格式
const visionPrompt = `이 이미지를 분석해주세요. 먼저 이미지가 무엇인지 판단하고, 적절한 분석을 수행하세요.

**1단계: 이미지 종류 판단**
- 식재료/음식 사진인가요?
- 영수증/쇼핑 리스트인가요?
- 텍스트가 포함된 문서인가요?

**2단계: 적절한 분석 수행**

**영수증/텍스트 문서인 경우:**
다음 JSON 형식으로 응답하세요:
{"type":"receipt","text":"추출된 전체 텍스트"}

**식재료/음식 사진인 경우:**
다음 JSON 형식으로 응답하세요:
{"type":"ingredients","ingredients":[{"name":"토마토","quantity":3,"confidence":85,"freshness":"good","storage":["실온보관 2-3일","냉장보관 1주일"],"recipes":["토마토 파스타 (조리시간: 20분)","토마토 샐러드 (조리시간: 5분)"],"nutrition":{"calories":18,"protein":0.9,"carbs":3.9,"fat":0.2,"vitamin":"C, K"},"tips":["빨간색이 진할수록 좋습니다","냉장보관시 맛이 떨어질 수 있습니다"]}],"totalCount":3}

분석 가이드라인:
- 영수증인 경우: 모든 텍스트를 정확히 추출하여 text 필드에 포함
- 식재료인 경우: 과일, 채소, 고기, 생선, 유제품, 곡물, 견과류, 향신료, 조리된 음식 등 모든 식품을 분석
- 확실하지 않더라도 가장 가능성 높은 추측으로 응답하세요
- 여러 식재료가 보이면 각각을 모두 인식하여 배열로 만드세요
- 조리된 음식의 경우 주재료들을 각각 분석하세요
- 정말 음식과 전혀 관련이 없는 경우에만 name을 "` + unknownImageLabel + `"으로 설정하세요
- 각 식재료의 개수를 정확히 세어서 quantity 필드에 입력하세요
- 개수를 명확히 셀 수 없는 경우 1로 설정하세요
- totalCount는 모든 식재료의 quantity 합계입니다

` + responseRules + `
5. 반드시 type 필드를 포함하여 "receipt" 또는 "ingredients" 값 설정`

func buildReceiptPrompt(text string) string {
	return fmt.Sprintf(`다음은 영수증에서 추출한 텍스트입니다. 이 텍스트에서 식재료와 개수를 분석하여 완전한 정보를 제공하세요. 정확히 다음 JSON 형식으로만 응답하세요.

영수증 텍스트: "%s"

응답 예시:
{"ingredients":[{"name":"토마토","quantity":3,"confidence":90,"freshness":"good","storage":["실온보관 2-3일","냉장보관 1주일","습도가 높은 곳은 피하세요"],"recipes":["토마토 파스타 (조리시간: 20분, 재료: 토마토, 파스타면, 올리브오일)","토마토 샐러드 (조리시간: 5분, 재료: 토마토, 양상추, 드레싱)","토마토 스프 (조리시간: 30분, 재료: 토마토, 양파, 육수)"],"nutrition":{"calories":18,"protein":0.9,"carbs":3.9,"fat":0.2,"vitamin":"C, K, 리코펜"},"tips":["빨간색이 진할수록 좋습니다","냉장보관시 맛이 떨어질 수 있습니다","꼭지 부분이 싱싱한 것을 선택하세요"]}],"totalCount":3}

분석 가이드라인:
- 영수증에서 언급된 모든 식재료를 찾아서 각각 완전한 정보로 분석하세요
- 가격, 브랜드명, 상품코드 등은 무시하고 식재료 이름만 추출하세요
- 개수가 명시된 경우 정확히 반영하세요 (kg, g 단위는 1개로 계산)
- 개수가 명시되지 않은 경우 1로 설정하세요
- 각 식재료마다 storage 3가지, recipes 3가지, nutrition, tips 3가지를 반드시 포함하세요
- freshness: 영수증에서 구매한 것이므로 "good" 또는 "excellent"로 설정
- confidence는 영수증 텍스트 품질에 따라 85-95 사이로 설정하세요
- 정말 식재료를 찾을 수 없는 경우에만 name을 "%s"로 설정하세요
- totalCount는 모든 식재료의 quantity 합계입니다

%s
5. 각 식재료마다 완전한 정보를 제공할 것`, text, unknownTextLabel, responseRules)
}

func buildTextPrompt(text string) string {
	return fmt.Sprintf(`다음 텍스트에서 식재료와 개수를 분석하여 정보를 제공하세요. 정확히 다음 JSON 형식으로만 응답하세요.

텍스트: "%s"

응답 예시:
{"ingredients":[{"name":"사과","quantity":2,"confidence":95,"freshness":"excellent","storage":["냉장보관 2주일","실온보관 1주일"],"recipes":["사과 파이","사과 쥬스"],"nutrition":{"calories":52,"protein":0.3,"carbs":14,"fat":0.2,"vitamin":"C"},"tips":["껍질째 먹으면 더 영양가가 높습니다"]},{"name":"계란","quantity":6,"confidence":95,"freshness":"good","storage":["냉장보관 3-4주"],"recipes":["계란후라이","계란찜"],"nutrition":{"calories":68,"protein":6,"carbs":0.6,"fat":4.8,"vitamin":"B12, D"},"tips":["신선도 확인은 물에 띄워보세요"]}],"totalCount":8}

분석 가이드라인:
- 텍스트에서 언급된 모든 식재료를 찾아서 각각 분석하세요
- 개수가 명시된 경우 정확히 반영하세요 ("3개", "두 개", "한 박스", "12개들이" 등 다양한 표현 인식)
- 개수가 명시되지 않은 경우 1로 설정하세요
- "한 박스", "한 꾸러미" 등의 경우 일반적인 개수로 추정하세요 (사과 한 박스 = 10개 정도)
- confidence는 텍스트 명확도에 따라 85-95 사이로 설정하세요
- 정말 식재료를 찾을 수 없는 경우에만 name을 "%s"로 설정하세요
- totalCount는 모든 식재료의 quantity 합계입니다

%s
5. 불확실하더라도 최선의 추측으로 응답`, text, unknownTextLabel, responseRules)
}

func buildLookupPrompt(name string, quantity int) string {
	return fmt.Sprintf(`"%[1]s"이라는 식재료에 대한 정보를 제공하세요. 정확히 다음 JSON 형식으로만 응답하세요.

응답 예시:
{"name":"토마토","quantity":%[2]d,"confidence":95,"freshness":"good","storage":["실온보관 2-3일","냉장보관 1주일"],"recipes":["토마토 파스타 (조리시간: 20분)","토마토 샐러드 (조리시간: 5분)","토마토 볶음밥 (조리시간: 15분)"],"nutrition":{"calories":18,"protein":0.9,"carbs":3.9,"fat":0.2,"vitamin":"C, K"},"tips":["빨간색이 진할수록 좋습니다","냉장보관시 맛이 떨어질 수 있습니다"]}

분석 가이드라인:
- 식재료 이름은 정확히 "%[1]s"으로 설정하세요
- quantity는 정확히 %[2]d으로 설정하세요
- confidence는 수동 입력이므로 90-95 사이로 설정하세요
- freshness는 "excellent", "good", "fair", "poor" 중 선택하세요
- storage는 실용적인 보관 방법 2-3가지를 제공하세요
- recipes는 해당 식재료를 활용한 요리법 3-4가지를 제공하세요 (조리시간 포함)
- nutrition은 100g 기준으로 정확한 영양 정보를 제공하세요
- tips는 구매, 보관, 요리 시 유용한 팁 2-3가지를 제공하세요

%[3]s`, strings.TrimSpace(name), quantity, responseRules)
}
