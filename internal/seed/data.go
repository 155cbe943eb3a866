package seed

// Seed discovery boundary

// searchEndpoint is the public HTML search form the query is submitted to.
const searchEndpoint = "https://html.duckduckgo.com/html/"

// adLinkPrefix marks sponsored results that must never become seeds.
const adLinkPrefix = "https://duckduckgo.com/y.js"

// resultSelector matches organic result anchors in the response DOM.
const resultSelector = "a.result__a[href]"
