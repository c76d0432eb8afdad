package fetch

const eslintAllJS = `/**
 * @fileoverview Config to enable all rules.
 * @author Robert Fletcher
 */

"use strict";

/*
 * IMPORTANT!
 *
 * We cannot add a "name" property to this object because it's still used in eslintrc
 */

module.exports = Object.freeze({
    rules: Object.freeze({
        "accessor-pairs": "error",
        "array-callback-return": "error",
        'arrow-body-style': "error",
        "no-unused-vars": ["error", { args: "none" }],
        eqeqeq: "error", // strict equality
    })
});
`

const rulesIndexJS = `/**
 * @fileoverview Collects the built-in rules into a map structure.
 */

"use strict";

const { LazyLoadingRuleMap } = require("./utils/lazy-loading-rule-map");

/** @type {Map<string, import("../shared/types").Rule>} */
module.exports = new LazyLoadingRuleMap(Object.entries({
    "accessor-pairs": () => require("./accessor-pairs"),
    "array-callback-return": () => require("./array-callback-return"),
    eqeqeq: () => require("./eqeqeq"),
    "no-unused-vars": () => require("./no-unused-vars"),
    "accessor-pairs": () => require("./accessor-pairs")
}));
`

const legacyIndexJS = `module.exports = {
    'no-console': require('./no-console'),
    "no-debugger": rule,
};
`

const eqeqeqJS = `/**
 * @fileoverview Rule to flag statements that use != and == instead of !== and ===
 */

"use strict";

const astUtils = require("./utils/ast-utils");

/** @type {import('../shared/types').Rule} */
module.exports = {
    meta: {
        type: "suggestion",

        docs: {
            description: "Require the use of ` + "`===`" + ` and ` + "`!==`" + `",
            category: "Best Practices",
            recommended: false,
            url: "https://eslint.org/docs/latest/rules/eqeqeq"
        },

        schema: {
            anyOf: [
                {
                    type: "array",
                    items: [{ enum: ["always"] }],
                    additionalItems: false
                },
            ]
        },

        fixable: "code",

        messages: {
            unexpected: "Expected '{{expectedOperator}}' and instead saw '{{actualOperator}}'."
        }
    },

    create(context) {
        const config = context.options[0] || "always";
        return {};
    }
};
`

const noConsoleJS = `module.exports = {
    meta: {
        type: 'suggestion',
        docs: {
            description: 'Disallow the use of {console}',
            recommended: true, // was "error" once
        },
        schema: [],
    },
    create(context) { return {}; }
};
`

const brokenMetaJS = `module.exports = {
    meta: {
        docs: { description: buildDescription("x") },
    },
    create() {}
};
`

const reactListingJS = `'use strict';

/* eslint global-require: 0 */

module.exports = {
  'boolean-prop-naming': require('./boolean-prop-naming'),
  'button-has-type': require('./button-has-type'),
  'jsx-key': require('./jsx-key'),
  index: require('./index'),
  'jsx-key': require('./jsx-key'),
};
`

const tagsJSON = `[
  {"name": "v9.0.0-rc.0"},
  {"name": "v8.57.0"},
  {"name": "v9.1.0"},
  {"name": "v9.0.0-beta.2"},
  {"name": "v9.0.0"},
  {"name": "v10.0.0-alpha.1"},
  {"name": "v8.9.0"},
  {"name": "nightly"}
]`
