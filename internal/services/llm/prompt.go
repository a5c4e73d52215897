package llm

// FeeExtractionPrompt instructs the model to pull the fee breakdown out of a
// Polish rental advertisement description.
const FeeExtractionPrompt = `You analyze Polish apartment rental advertisements.
Extract every recurring or one-time cost mentioned in the description beyond the asking rent.

Respond with JSON only, using exactly this shape:
{
  "administrative_rent": number or null,
  "utilities_estimate": number or null,
  "parking_fee": number or null,
  "deposit": number or null,
  "one_time_fees": number or null,
  "confidence": number between 0 and 1,
  "notes": "short remark, optional"
}

Rules:
- All amounts are monthly PLN unless the text clearly states a one-time payment, which belongs in one_time_fees.
- "czynsz administracyjny" or "czynsz do spółdzielni" is administrative_rent.
- "media", "prąd", "woda", "gaz" estimates go into utilities_estimate.
- "kaucja" is deposit. Agency commission ("prowizja") counts as one_time_fees.
- Use null for anything the text does not mention. Never guess amounts.
- confidence reflects how explicit the amounts are in the text.`
